package linsys

// Copyright (c) 2025 Colin McRae

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

// ReadDense reads a matrix in dense text format: a first line holding only
// the number of rows and the number of columns, followed by the entries, row
// by row, separated by any white space.
func ReadDense(r io.Reader) (*Matrix, error) {
	caller := "ReadDense"
	reader := bufio.NewReader(r)
	firstLine, err := reader.ReadString('\n')
	if (err != nil) && (err != io.EOF) {
		return nil, fmt.Errorf("%s: could not read dimensions: %w", caller, err)
	}
	dimensions := strings.Fields(firstLine)
	if len(dimensions) != 2 {
		return nil, fmt.Errorf("%s: first line %q does not hold two dimensions: %w", caller, firstLine, ErrFormat)
	}
	numRows, errRows := strconv.Atoi(dimensions[0])
	numCols, errCols := strconv.Atoi(dimensions[1])
	if (errRows != nil) || (errCols != nil) || (numRows <= 0) || (numCols <= 0) {
		return nil, fmt.Errorf("%s: illegal dimensions %q: %w", caller, strings.TrimSpace(firstLine), ErrFormat)
	}

	entries, err := readIntegers(reader, caller)
	if err != nil {
		return nil, err
	}
	if len(entries) != numRows*numCols {
		return nil, fmt.Errorf(
			"%s: %d entries for a %d x %d matrix: %w", caller, len(entries), numRows, numCols, ErrFormat,
		)
	}
	return FromBigInt(entries, numRows, numCols)
}

// ReadVector reads white space separated integers until the end of r.
func ReadVector(r io.Reader) ([]*big.Int, error) {
	retVal, err := readIntegers(r, "ReadVector")
	if err != nil {
		return nil, err
	}
	if len(retVal) == 0 {
		return nil, fmt.Errorf("ReadVector: no entries: %w", ErrFormat)
	}
	return retVal, nil
}

// WriteDense writes m in the format read by ReadDense.
func WriteDense(w io.Writer, m *Matrix) error {
	writer := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(writer, "%d %d\n", m.numRows, m.numCols); err != nil {
		return fmt.Errorf("WriteDense: could not write dimensions: %w", err)
	}
	for i := 0; i < m.numRows; i++ {
		row := make([]string, m.numCols)
		for j := 0; j < m.numCols; j++ {
			row[j] = m.values[i*m.numCols+j].String()
		}
		if _, err := fmt.Fprintln(writer, strings.Join(row, " ")); err != nil {
			return fmt.Errorf("WriteDense: could not write row %d: %w", i, err)
		}
	}
	return writer.Flush()
}

func readIntegers(r io.Reader, caller string) ([]*big.Int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	scanner.Split(bufio.ScanWords)
	var retVal []*big.Int
	for scanner.Scan() {
		entry, ok := big.NewInt(0).SetString(scanner.Text(), 10)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d, %q, is not an integer: %w", caller, len(retVal), scanner.Text(), ErrFormat)
		}
		retVal = append(retVal, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: could not read entries: %w", caller, err)
	}
	return retVal, nil
}
