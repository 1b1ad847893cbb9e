package store

import (
	"database/sql"
	"strconv"
	"time"
)

// SetMetadata upserts a key-value pair in the exam_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO exam_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM exam_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// BankInfo describes where a packed bank came from. A bank file holds one
// bank, so SourcePath and SourceHash identify the content it currently holds.
type BankInfo struct {
	Source     string
	SourcePath string
	SourceHash string
	Questions  int
	PackedAt   time.Time
}

// SetBankInfo stores all BankInfo fields as metadata rows.
func (s *Store) SetBankInfo(info BankInfo) error {
	pairs := []struct{ k, v string }{
		{"source", info.Source},
		{"source_path", info.SourcePath},
		{"source_hash", info.SourceHash},
		{"questions", strconv.Itoa(info.Questions)},
		{"packed_at", info.PackedAt.UTC().Format(time.RFC3339)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetBankInfo reads all BankInfo fields from metadata.
func (s *Store) GetBankInfo() (BankInfo, error) {
	var info BankInfo
	var err error

	if info.Source, err = s.GetMetadata("source"); err != nil {
		return info, err
	}
	if info.SourcePath, err = s.GetMetadata("source_path"); err != nil {
		return info, err
	}
	if info.SourceHash, err = s.GetMetadata("source_hash"); err != nil {
		return info, err
	}
	n, err := s.GetMetadata("questions")
	if err != nil {
		return info, err
	}
	if n != "" {
		if info.Questions, err = strconv.Atoi(n); err != nil {
			return info, err
		}
	}
	at, err := s.GetMetadata("packed_at")
	if err != nil {
		return info, err
	}
	if at != "" {
		if info.PackedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return info, err
		}
	}
	return info, nil
}
