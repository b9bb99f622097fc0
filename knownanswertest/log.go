package knownanswertest

// Copyright (c) 2025 Colin McRae

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	kindProgress = "progress"
	kindResults  = "results"
)

// KATLog appends one JSON object per line to a file. Progress lines carry only
// the runs recorded since the previous report; result lines carry a whole
// CRAContext.
type KATLog struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	reported map[*CRAContext]int
}

// KATEntry is one line of a KATLog.
type KATEntry struct {
	Time    time.Time     `json:"time"`
	Kind    string        `json:"kind"`
	Dim     int           `json:"dim"`
	Runs    []StrategyRun `json:"runs,omitempty"`
	Context *CRAContext   `json:"context,omitempty"`
}

// NewKATLog creates a new log file for problems of dimension dim in directory dir.
func NewKATLog(dir string, dim int) (*KATLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewKATLog: could not create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("kat-dim%d-%s.jsonl", dim, uuid.NewString()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("NewKATLog: could not open %s: %w", path, err)
	}
	return &KATLog{file: file, encoder: json.NewEncoder(file), reported: make(map[*CRAContext]int)}, nil
}

// Path returns the name of the log file.
func (kl *KATLog) Path() string {
	return kl.file.Name()
}

// ReportProgress writes the runs recorded in cc since the last report, if any.
func (kl *KATLog) ReportProgress(cc *CRAContext) error {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	start := kl.reported[cc]
	if start >= len(cc.Results) {
		return nil
	}
	kl.reported[cc] = len(cc.Results)
	return kl.write(KATEntry{Kind: kindProgress, Dim: cc.Dim, Runs: cc.Results[start:]}, "ReportProgress")
}

// ReportResults writes all of cc.
func (kl *KATLog) ReportResults(cc *CRAContext) error {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	kl.reported[cc] = len(cc.Results)
	return kl.write(KATEntry{Kind: kindResults, Dim: cc.Dim, Context: cc}, "ReportResults")
}

// Close closes the log file.
func (kl *KATLog) Close() error {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return kl.file.Close()
}

func (kl *KATLog) write(entry KATEntry, caller string) error {
	entry.Time = time.Now().UTC()
	if err := kl.encoder.Encode(entry); err != nil {
		return fmt.Errorf("KATLog.%s: could not write to %s: %w", caller, kl.file.Name(), err)
	}
	return nil
}

// ReadKATLog returns the entries in the log file at path.
func ReadKATLog(path string) ([]KATEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadKATLog: %w", err)
	}
	defer file.Close()
	var retVal []KATEntry
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var entry KATEntry
		if err = decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("ReadKATLog: entry %d of %s: %w", len(retVal), path, err)
		}
		retVal = append(retVal, entry)
	}
	return retVal, nil
}
