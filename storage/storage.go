package storage

import (
	"errors"
	"fmt"
)

// Storage receives the keys of one conversion run. Keys are staged until
// Commit makes all of them visible at once; Discard drops everything staged.
type Storage interface {
	// Put stages value at key
	Put(key string, value string) error
	// PutMeta stages a metadata entry of key
	PutMeta(key string, meta string, value string) error
	// Commit publishes every staged key
	Commit() error
	// Discard drops every staged key
	Discard() error
}

// ErrStagingNotEmpty is returned when a previous run left staged data behind
var ErrStagingNotEmpty = errors.New("staging area is not empty, a previous run did not finish")

// StorageConfig maps the storage section of lcdconf.yaml
type StorageConfig struct {
	Type string
	// file: export path, badger: database directory
	Path string
	// namespace all keys are written under
	Root            string
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Region          string
	Bucket          string
}

// FromConfig returns the Storage described by config
func FromConfig(config StorageConfig) (Storage, error) {
	switch config.Type {
	case "file":
		if config.Path == "" {
			return nil, errors.New("file storage needs a path")
		}
		s, err := NewFileStorage(config.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Storage(config.AccessKeyID, config.SecretAccessKey, config.Region, config.Bucket)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "badger":
		db, err := OpenBadger(BadgerConfig{Path: config.Path, SyncWrites: true})
		if err != nil {
			return nil, err
		}
		s := NewBadgerStorage(db)
		s.closeDB = true
		return s, nil
	default:
		return nil, fmt.Errorf("invalid storage type: %q", config.Type)
	}
}
