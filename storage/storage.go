// Package storage implements the append-only evaluation log (spec section
// 4.J): records are grouped by (opt_id, problem_id), parameters,
// objectives, features, and constraints are self-describing via
// name→index enumerations, and the file is opened, appended to, and
// closed within a single call, mirroring save_evals.
package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"

	"github.com/iraikov/dmosopt/paramspace"
)

// NewOptID generates a fresh run identifier for callers that don't have one
// configured (spec section 6 requires opt_id, but doesn't say where it
// comes from when a caller wants a throwaway run id rather than a stable
// configured one).
func NewOptID() string {
	return uuid.NewString()
}

// Schema is the self-describing name→index enumeration recorded once per
// opt_id, plus the parameter-space bounds needed to seed a restored run.
type Schema struct {
	OptID           string
	ParameterNames  []string
	ParameterLower  []float64
	ParameterUpper  []float64
	ParameterInt    []bool
	ObjectiveNames  []string
	FeatureNames    []string
	ConstraintNames []string
	ProblemParams   map[string]float64

	// Multi marks a run with more than one problem id sharing this opt_id,
	// distinguishing batched multi-problem runs from a single-problem run
	// (supplements the original's implicit has_problem_ids distinction).
	Multi bool
}

func (s Schema) Space() paramspace.Space {
	params := make([]paramspace.Parameter, len(s.ParameterNames))
	for i, name := range s.ParameterNames {
		params[i] = paramspace.Parameter{
			Name:    name,
			Lower:   s.ParameterLower[i],
			Upper:   s.ParameterUpper[i],
			Integer: i < len(s.ParameterInt) && s.ParameterInt[i],
		}
	}
	return paramspace.Space{Parameters: params}
}

// recordKind tags each framed record so Load can dispatch without a
// separate index.
type recordKind uint8

const (
	kindSchema recordKind = iota
	kindEntry
	kindSurrogateEval
)

type entryRecord struct {
	ProblemID string
	Entry     paramspace.Entry
}

// SurrogateEvalRecord is one optional surrogate-accuracy trace point,
// recorded only when save_surrogate_eval is enabled.
type SurrogateEvalRecord struct {
	ProblemID string
	Epoch     int
	X         []float64
	YPred     []float64
	YActual   []float64
}

// Store appends framed msgpack records to a single log file per spec
// section 6's file_path configuration key.
type Store struct {
	path string
}

// Open returns a Store bound to path; the file is created on first Append
// if it does not already exist.
func Open(path string) *Store {
	return &Store{path: path}
}

// AppendSchema writes (or rewrites, on restart, if the schema changed) the
// opt_id's header record. Call once before the first AppendEntries.
func (s *Store) AppendSchema(schema Schema) error {
	return s.appendRecord(kindSchema, schema)
}

// AppendEntries appends one or more evaluation entries for a problem,
// opening, writing, and closing the file within this call, matching
// save_evals's whole-completion-batch write discipline. Every entry in the
// batch is attempted even if an earlier one fails to encode or write; the
// individual failures are aggregated into the returned error so one bad
// record doesn't silently drop the rest of the batch.
func (s *Store) AppendEntries(problemID string, entries []paramspace.Entry) error {
	var errs error
	for _, e := range entries {
		if err := s.appendRecord(kindEntry, entryRecord{ProblemID: problemID, Entry: e}); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// AppendSurrogateEval records one optional surrogate-prediction trace
// point into the sibling surrogate_evals stream, gated by the caller on
// the save_surrogate_eval configuration key.
func (s *Store) AppendSurrogateEval(rec SurrogateEvalRecord) error {
	return s.appendRecord(kindSurrogateEval, rec)
}

func (s *Store) appendRecord(kind recordKind, payload any) error {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("storage: encode record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", s.path, err)
	}
	defer f.Close()

	header := make([]byte, 5)
	header[0] = byte(kind)
	binary.BigEndian.PutUint32(header[1:], uint32(len(body)))
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("storage: write frame header: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("storage: write frame body: %w", err)
	}
	return nil
}

// EntriesToHistory splits a problem's entry history into the parallel
// X/Y/F/C slices strategy.New expects as its restoredX/restoredY/restoredF/
// restoredC arguments, preserving file order (i.e. original completion
// order). Feature columns, when present, are ordered by featureNames so
// every row lines up the same way regardless of map iteration order.
// Constraint columns are carried through as-recorded: Entry.Constraints is
// already a positional slice, not a name-keyed map, so no reordering is
// needed.
func EntriesToHistory(entries []paramspace.Entry, featureNames []string) (X, Y, F, C [][]float64) {
	for _, e := range entries {
		X = append(X, e.X)
		Y = append(Y, e.Y)
		if e.Features != nil && len(featureNames) > 0 {
			row := make([]float64, len(featureNames))
			for i, name := range featureNames {
				row[i] = e.Features[name]
			}
			F = append(F, row)
		}
		if e.Constraints != nil {
			C = append(C, e.Constraints)
		}
	}
	return X, Y, F, C
}

// LoadResult is the full contents of a restored log: the last-written
// schema, every problem's entry history (in file order, i.e. completion
// order), and any surrogate-eval traces.
type LoadResult struct {
	Schema    Schema
	HasSchema bool
	Entries   map[string][]paramspace.Entry
	Surrogate []SurrogateEvalRecord
}

// Load reads every frame from the log file and reconstructs the schema and
// per-problem entry history, seeding a restart exactly as the scheduler's
// restore path requires. A missing file is not an error: it returns an
// empty LoadResult, matching "no prior run to restore."
func (s *Store) Load() (LoadResult, error) {
	result := LoadResult{Entries: make(map[string][]paramspace.Entry)}

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("storage: open %s: %w", s.path, err)
	}
	defer f.Close()

	for {
		header := make([]byte, 5)
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF {
				break
			}
			return result, fmt.Errorf("storage: read frame header: %w", err)
		}
		kind := recordKind(header[0])
		size := binary.BigEndian.Uint32(header[1:])
		body := make([]byte, size)
		if _, err := io.ReadFull(f, body); err != nil {
			return result, fmt.Errorf("storage: read frame body: %w", err)
		}

		switch kind {
		case kindSchema:
			var schema Schema
			if err := msgpack.Unmarshal(body, &schema); err != nil {
				return result, fmt.Errorf("storage: decode schema: %w", err)
			}
			result.Schema = schema
			result.HasSchema = true
		case kindEntry:
			var rec entryRecord
			if err := msgpack.Unmarshal(body, &rec); err != nil {
				return result, fmt.Errorf("storage: decode entry: %w", err)
			}
			result.Entries[rec.ProblemID] = append(result.Entries[rec.ProblemID], rec.Entry)
		case kindSurrogateEval:
			var rec SurrogateEvalRecord
			if err := msgpack.Unmarshal(body, &rec); err != nil {
				return result, fmt.Errorf("storage: decode surrogate eval: %w", err)
			}
			result.Surrogate = append(result.Surrogate, rec)
		default:
			return result, fmt.Errorf("storage: unknown record kind %d", kind)
		}
	}
	return result, nil
}
