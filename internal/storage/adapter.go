package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gmllt/kban/internal/board"
)

const defaultTimeout = 10 * time.Second

// Adapter saves and loads a board snapshot under one key of a KV store. It
// implements board.Persister.
type Adapter struct {
	kv      KV
	key     string
	timeout time.Duration
}

func NewAdapter(kv KV, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{kv: kv, key: key, timeout: defaultTimeout}
}

func (a *Adapter) Key() string { return a.key }

func (a *Adapter) Save(snap board.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.kv.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("error saving board: %w", err)
	}
	return nil
}

func (a *Adapter) Load() (board.Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	data, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, ErrNotExist) {
		return board.Snapshot{}, false, nil
	}
	if err != nil {
		return board.Snapshot{}, false, fmt.Errorf("error loading board: %w", err)
	}
	snap, err := Decode(data)
	if err != nil {
		return board.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Ping checks the backend when it supports health checks.
func (a *Adapter) Ping(ctx context.Context) error {
	if p, ok := a.kv.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.kv.Close()
}
