package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
)

// MetaSeparator separates a key from the name of one of its metadata entries.
// It cannot occur in keys read from a configuration file.
const MetaSeparator = "\x00"

// MetaKey returns the badger key holding metadata entry meta of key
func MetaKey(key string, meta string) string {
	return key + MetaSeparator + meta
}

// BadgerConfig configures an embedded badger key-value store
type BadgerConfig struct {
	// Path is the database directory, ignored when InMemory is set
	Path string

	InMemory bool

	SyncWrites bool
}

// badgerLogger routes badger's internal messages to the application logger
type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// OpenBadger opens (creating if needed) the badger database described by cfg
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger storage needs a path")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithLogger(&badgerLogger{logger: log.Default().WithPrefix("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// BadgerStorage stages keys in a single badger transaction, so a run is
// either fully visible to readers or not at all
type BadgerStorage struct {
	db      *badger.DB
	txn     *badger.Txn
	closeDB bool
}

// NewBadgerStorage returns a Storage writing to db. The caller keeps ownership of db.
func NewBadgerStorage(db *badger.DB) *BadgerStorage {
	return &BadgerStorage{db: db, txn: db.NewTransaction(true)}
}

func (s *BadgerStorage) set(key string, value string) error {
	err := s.txn.Set([]byte(key), []byte(value))
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("stage %q: conversion does not fit in one transaction: %w", key, err)
	}
	return err
}

// Put stages value at key
func (s *BadgerStorage) Put(key string, value string) error {
	return s.set(key, value)
}

// PutMeta stages a metadata entry under MetaKey(key, meta)
func (s *BadgerStorage) PutMeta(key string, meta string, value string) error {
	return s.set(MetaKey(key, meta), value)
}

// Commit commits the transaction
func (s *BadgerStorage) Commit() error {
	err := s.txn.Commit()
	if err == nil {
		log.Info("Transaction committed", "db", s.db.Opts().Dir)
	}
	return errors.Join(err, s.finish())
}

// Discard drops the transaction
func (s *BadgerStorage) Discard() error {
	s.txn.Discard()
	return s.finish()
}

// finish starts a fresh transaction, or closes the database when it is owned
func (s *BadgerStorage) finish() error {
	if s.closeDB {
		return s.db.Close()
	}
	s.txn = s.db.NewTransaction(true)
	return nil
}
