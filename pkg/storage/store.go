// Package storage persists trained model artifacts.
//
// An artifact is written once per successful training run, overwriting the
// previous one, and read once by each serving process at startup. Backends:
//
//   - file:   a gob file on local disk, replaced atomically via rename
//   - redis:  a single key holding the gob bytes
//   - memory: process-local, used in tests and for ephemeral runs
package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/HatiCode/climacast/pkg/models"
)

// ErrNotFound is returned by Load when no artifact has been saved yet.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a fitted regressor plus the metadata needed to serve it.
type Artifact struct {
	Model models.Regressor
	// Features is the ordered input vector the model expects.
	Features []string
	Target   string

	RunID      string
	TrainedAt  time.Time
	Rows       int
	FoldErrors []float64
	MeanError  float64
}

// Validate reports whether the artifact can serve predictions.
func (a *Artifact) Validate() error {
	if a.Model == nil {
		return errors.New("artifact has no model")
	}
	if len(a.Features) == 0 {
		return errors.New("artifact has no features")
	}
	return nil
}

// Encode writes the artifact as a gob stream.
func (a *Artifact) Encode(w io.Writer) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Decode reads an artifact written by Encode.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

func marshal(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Saver is the write side used by the trainer.
type Saver interface {
	Save(ctx context.Context, a *Artifact) error
}

// Loader is the read side used by the predictor.
type Loader interface {
	// Load returns ErrNotFound when nothing was saved.
	Load(ctx context.Context) (*Artifact, error)
}

// ArtifactStore is implemented by every backend.
type ArtifactStore interface {
	Saver
	Loader
}
