package analyzer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kapidiff/internal/abi"
	"kapidiff/internal/csig"
	"kapidiff/internal/ctags"
	"kapidiff/internal/extract"
	"kapidiff/internal/inline"
	"kapidiff/internal/logging"
	"kapidiff/internal/sigdiff"
	"kapidiff/internal/source"
	"kapidiff/internal/subsystem"
)

// Options configures one analysis run.
type Options struct {
	OldVersion string
	NewVersion string

	// Workers bounds the symbol-comparison pool; values below 1 mean a
	// single worker.
	Workers int

	// Subsystems enables subsystem bucketing when non-nil.
	Subsystems *subsystem.Classifier

	// InlineHeuristic enables the inline function body analysis.
	InlineHeuristic bool
}

// Analyzer compares two snapshots symbol by symbol. Every comparison
// is a pure function over the two immutable trees; the only shared
// state is the read-through file cache per tree.
type Analyzer struct {
	oldTags *ctags.SymbolTable
	newTags *ctags.SymbolTable
	oldTree *source.Cache
	newTree *source.Cache
	logger  *logging.Logger
	opts    Options
}

// New creates an Analyzer over parsed tag tables and source caches.
func New(oldTags, newTags *ctags.SymbolTable, oldTree, newTree *source.Cache, opts Options, logger *logging.Logger) *Analyzer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Analyzer{
		oldTags: oldTags,
		newTags: newTags,
		oldTree: oldTree,
		newTree: newTree,
		logger:  logger,
		opts:    opts,
	}
}

// Run executes the full comparison and returns the result document.
// The only error source is context cancellation; per-symbol problems
// degrade to absent records.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	result := &Result{
		RunID:       uuid.NewString(),
		OldVersion:  a.opts.OldVersion,
		NewVersion:  a.opts.NewVersion,
		GeneratedAt: start.UTC().Format(time.RFC3339),
		Summary:     make(map[string]CategorySummary),
	}

	var err error
	if result.Functions, err = a.analyzeFunctions(ctx); err != nil {
		return nil, err
	}
	if result.Structs, err = a.analyzeStructs(ctx); err != nil {
		return nil, err
	}
	result.Macros = a.analyzeMacros()
	result.Typedefs = a.analyzePresence(ctags.KindTypedef)
	result.Enums = a.analyzePresence(ctags.KindEnum)

	result.Summary["functions"] = summarizeFunctions(result.Functions)
	result.Summary["structs"] = summarizeStructs(result.Structs)
	result.Summary["macros"] = summarizeMacros(result.Macros)
	result.Summary["typedefs"] = summarizeTypes(result.Typedefs)
	result.Summary["enums"] = summarizeTypes(result.Enums)

	result.ABIImpact = a.classifyABI(result)

	if a.opts.Subsystems != nil {
		result.Subsystems = a.bucketSubsystems(result)
	}
	if a.opts.InlineHeuristic {
		result.InlineFunctions = inline.Compare(a.oldTree, a.newTree)
	}

	result.DurationMs = time.Since(start).Milliseconds()

	a.logger.Info("analysis complete", map[string]interface{}{
		"runId":      result.RunID,
		"functions":  len(result.Functions),
		"structs":    len(result.Structs),
		"durationMs": result.DurationMs,
	})

	return result, nil
}

// analyzeFunctions walks the union of function names across both
// versions. Comparisons are independent per symbol, so they run on a
// bounded worker pool and are merged by concatenation; the final sort
// by name makes the output order deterministic.
func (a *Analyzer) analyzeFunctions(ctx context.Context) ([]FunctionChange, error) {
	oldFuncs := a.oldTags.Kind(ctags.KindFunction)
	newFuncs := a.newTags.Kind(ctags.KindFunction)

	var changes []FunctionChange
	for name, loc := range newFuncs {
		if _, ok := oldFuncs[name]; !ok {
			changes = append(changes, FunctionChange{
				Name:       name,
				ChangeType: ChangeAdded,
				File:       loc.File,
				Line:       loc.Line,
				Signature:  loc.Signature,
			})
		}
	}
	for name, loc := range oldFuncs {
		if _, ok := newFuncs[name]; !ok {
			changes = append(changes, FunctionChange{
				Name:       name,
				ChangeType: ChangeRemoved,
				File:       loc.File,
				Line:       loc.Line,
				Signature:  loc.Signature,
			})
		}
	}

	var common []string
	for name := range oldFuncs {
		if _, ok := newFuncs[name]; ok {
			common = append(common, name)
		}
	}

	modified, err := parallelMap(ctx, a.opts.Workers, common, func(name string) *FunctionChange {
		return a.compareFunction(name, oldFuncs[name], newFuncs[name])
	})
	if err != nil {
		return nil, err
	}
	changes = append(changes, modified...)

	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes, nil
}

// compareFunction produces a modified record for one function present
// in both versions, or nil when it is unchanged or unknowable.
func (a *Analyzer) compareFunction(name string, oldLoc, newLoc ctags.SymbolLocation) *FunctionChange {
	oldDecl := extract.Extract(a.oldTree, oldLoc.File, oldLoc.Line)
	newDecl := extract.Extract(a.newTree, newLoc.File, newLoc.Line)

	// An unterminated scan means "no information", which must never be
	// reported as a change.
	if oldDecl.Terminator == extract.Unterminated || newDecl.Terminator == extract.Unterminated {
		a.logger.Debug("declaration scan inconclusive", map[string]interface{}{
			"symbol": name,
			"old":    oldLoc.File,
			"new":    newLoc.File,
		})
		return nil
	}
	if oldDecl.Text == newDecl.Text {
		return nil
	}

	oldParams := csig.Decompose(oldDecl.Text)
	newParams := csig.Decompose(newDecl.Text)

	oldReturn := csig.ReturnType(oldDecl.Text)
	newReturn := csig.ReturnType(newDecl.Text)

	return &FunctionChange{
		Name:              name,
		ChangeType:        ChangeModified,
		File:              newLoc.File,
		OldSignature:      oldDecl.Text,
		NewSignature:      newDecl.Text,
		OldLine:           oldLoc.Line,
		NewLine:           newLoc.Line,
		ReturnTypeChanged: oldReturn != newReturn,
		OldReturnType:     oldReturn,
		NewReturnType:     newReturn,
		ParameterChanges:  sigdiff.CompareParameters(oldParams, newParams),
	}
}

func (a *Analyzer) analyzeStructs(ctx context.Context) ([]StructChange, error) {
	oldStructs := a.oldTags.Kind(ctags.KindStruct)
	newStructs := a.newTags.Kind(ctags.KindStruct)

	var changes []StructChange
	for name, loc := range newStructs {
		if _, ok := oldStructs[name]; !ok {
			changes = append(changes, StructChange{Name: name, ChangeType: ChangeAdded, File: loc.File})
		}
	}
	for name, loc := range oldStructs {
		if _, ok := newStructs[name]; !ok {
			changes = append(changes, StructChange{Name: name, ChangeType: ChangeRemoved, File: loc.File})
		}
	}

	var common []string
	for name := range oldStructs {
		if _, ok := newStructs[name]; ok {
			common = append(common, name)
		}
	}

	modified, err := parallelMap(ctx, a.opts.Workers, common, func(name string) *StructChange {
		return a.compareStruct(name, oldStructs[name], newStructs[name])
	})
	if err != nil {
		return nil, err
	}
	changes = append(changes, modified...)

	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes, nil
}

func (a *Analyzer) compareStruct(name string, oldLoc, newLoc ctags.SymbolLocation) *StructChange {
	oldFields := extract.ExtractFields(a.oldTree, oldLoc.File, name, oldLoc.Line)
	newFields := extract.ExtractFields(a.newTree, newLoc.File, name, newLoc.Line)

	// nil means the body was never found; no data, no diff.
	if oldFields == nil || newFields == nil {
		return nil
	}
	if equalFields(oldFields, newFields) {
		return nil
	}

	diff := sigdiff.CompareFields(oldFields, newFields)
	return &StructChange{
		Name:         name,
		ChangeType:   ChangeModified,
		File:         newLoc.File,
		OldFields:    oldFields,
		NewFields:    newFields,
		FieldChanges: &diff,
	}
}

// analyzeMacros compares macros on the ctags signature hint alone.
func (a *Analyzer) analyzeMacros() []MacroChange {
	oldMacros := a.oldTags.Kind(ctags.KindMacro)
	newMacros := a.newTags.Kind(ctags.KindMacro)

	var changes []MacroChange
	for name, loc := range newMacros {
		if _, ok := oldMacros[name]; !ok {
			changes = append(changes, MacroChange{Name: name, ChangeType: ChangeAdded, File: loc.File})
		}
	}
	for name, loc := range oldMacros {
		if _, ok := newMacros[name]; !ok {
			changes = append(changes, MacroChange{Name: name, ChangeType: ChangeRemoved, File: loc.File})
		}
	}
	for name, oldLoc := range oldMacros {
		newLoc, ok := newMacros[name]
		if !ok {
			continue
		}
		if oldLoc.Signature != newLoc.Signature {
			changes = append(changes, MacroChange{
				Name:          name,
				ChangeType:    ChangeModified,
				File:          newLoc.File,
				OldDefinition: oldLoc.Signature,
				NewDefinition: newLoc.Signature,
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}

// analyzePresence tracks added/removed symbols for kinds where only
// presence is meaningful (typedefs, enums).
func (a *Analyzer) analyzePresence(kind ctags.Kind) []TypeChange {
	oldSyms := a.oldTags.Kind(kind)
	newSyms := a.newTags.Kind(kind)

	var changes []TypeChange
	for name, loc := range newSyms {
		if _, ok := oldSyms[name]; !ok {
			changes = append(changes, TypeChange{Name: name, ChangeType: ChangeAdded, File: loc.File})
		}
	}
	for name, loc := range oldSyms {
		if _, ok := newSyms[name]; !ok {
			changes = append(changes, TypeChange{Name: name, ChangeType: ChangeRemoved, File: loc.File})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}

// classifyABI maps every modified function and struct through the ABI
// classifier, in name order so the report is deterministic.
func (a *Analyzer) classifyABI(result *Result) abi.Report {
	var findings []abi.Finding

	for _, fc := range result.Functions {
		if fc.ChangeType != ChangeModified {
			continue
		}
		if f := abi.ClassifyFunction(fc.Name, fc.File, fc.ParameterChanges, fc.ReturnTypeChanged); f != nil {
			findings = append(findings, *f)
		}
	}
	for _, sc := range result.Structs {
		if sc.ChangeType != ChangeModified || sc.FieldChanges == nil {
			continue
		}
		if f := abi.ClassifyStruct(sc.Name, sc.File, *sc.FieldChanges); f != nil {
			findings = append(findings, *f)
		}
	}

	return abi.BuildReport(findings)
}

// bucketSubsystems adapts the change records into the minimal views
// the subsystem classifier consumes.
func (a *Analyzer) bucketSubsystems(result *Result) map[string]subsystem.Changes {
	var funcs []subsystem.FuncChange
	for _, fc := range result.Functions {
		v := subsystem.FuncChange{
			Name:     fc.Name,
			File:     fc.File,
			Modified: fc.ChangeType == ChangeModified,
		}
		for _, pc := range fc.ParameterChanges {
			if pc.Kind == sigdiff.Added {
				v.ParamsAdded = true
				break
			}
		}
		funcs = append(funcs, v)
	}

	var structs []subsystem.StructView
	for _, sc := range result.Structs {
		v := subsystem.StructView{
			Name:     sc.Name,
			File:     sc.File,
			Modified: sc.ChangeType == ChangeModified,
		}
		if sc.FieldChanges != nil {
			v.FieldsAdded = len(sc.FieldChanges.Added)
		}
		structs = append(structs, v)
	}

	return a.opts.Subsystems.Bucket(funcs, structs)
}

// parallelMap runs fn over names on the worker pool and collects the
// non-nil results. Merge order is irrelevant; callers sort afterwards.
func parallelMap[T any](ctx context.Context, workers int, names []string, fn func(string) *T) ([]T, error) {
	jobs := make(chan string)
	var mu sync.Mutex
	var out []T
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if r := fn(name); r != nil {
					mu.Lock()
					out = append(out, *r)
					mu.Unlock()
				}
			}
		}()
	}

	var err error
loop:
	for _, name := range names {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case jobs <- name:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return out, nil
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func summarizeFunctions(changes []FunctionChange) CategorySummary {
	var s CategorySummary
	for _, c := range changes {
		s.count(c.ChangeType)
	}
	return s
}

func summarizeStructs(changes []StructChange) CategorySummary {
	var s CategorySummary
	for _, c := range changes {
		s.count(c.ChangeType)
	}
	return s
}

func summarizeMacros(changes []MacroChange) CategorySummary {
	var s CategorySummary
	for _, c := range changes {
		s.count(c.ChangeType)
	}
	return s
}

func summarizeTypes(changes []TypeChange) CategorySummary {
	var s CategorySummary
	for _, c := range changes {
		s.count(c.ChangeType)
	}
	return s
}

func (s *CategorySummary) count(t ChangeType) {
	switch t {
	case ChangeAdded:
		s.Added++
	case ChangeRemoved:
		s.Removed++
	case ChangeModified:
		s.Modified++
	}
	s.TotalChanges++
}
