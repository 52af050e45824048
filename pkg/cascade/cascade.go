// Package cascade implements the orchestration strategy that runs a cheap
// line-based merge first and escalates to the structured
// pipeline (parse, match, classify, merge, render) when the line-based
// result carries conflicts or additional issues (every line-based result is
// flagged with additional issues, so escalation happens unless disabled),
// falling back to it whenever structured merging cannot run or cannot
// finish in time.
package cascade

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mergiraf/mergiraf/pkg/ast"
	"github.com/mergiraf/mergiraf/pkg/diff3"
	"github.com/mergiraf/mergiraf/pkg/editclass"
	"github.com/mergiraf/mergiraf/pkg/lang"
	"github.com/mergiraf/mergiraf/pkg/mergeerr"
	"github.com/mergiraf/mergiraf/pkg/provider"
	"github.com/mergiraf/mergiraf/pkg/render"
	"github.com/mergiraf/mergiraf/pkg/revision"
	"github.com/mergiraf/mergiraf/pkg/settings"
	"github.com/mergiraf/mergiraf/pkg/textnorm"
	"github.com/mergiraf/mergiraf/pkg/treematch"
	"github.com/mergiraf/mergiraf/pkg/treemerge"
)

// DisablingEnvVar is the environment variable that short-circuits the
// cascade to the line-based merge when set to a truthy value. It exists so
// the tool can invoke the host VCS without recursing into itself when it
// is configured as that VCS's merge driver.
const DisablingEnvVar = "MERGIRAF_DISABLE"

// Options carries the caller-tunable knobs of one cascade invocation.
type Options struct {
	Display settings.Display
	// Timeout gates the structured phase only; zero means unbounded.
	Timeout time.Duration
	// Profile overrides language detection from the filename when non-nil
	// (used by config-file language pinning; see pkg/settings).
	Profile *lang.Profile
	// Logger, when non-nil, receives the cascade's fallback decisions at
	// Warn and its escalations at Debug. The pipeline stays silent
	// otherwise.
	Logger *logrus.Entry
}

// Merge runs the full cascade over three complete revisions of the file at
// path. It always produces a textual result; conflicts are reported
// through the returned statistics, never through an error.
func Merge(ctx context.Context, path, base, left, right string, opts Options) settings.MergeResult {
	style := textnorm.InferNewlineStyle(base)
	if opts.Display.NewlineStyleOverride != nil {
		style = *opts.Display.NewlineStyleOverride
	}

	baseLF := textnorm.NormalizeToLf(base)
	leftLF := textnorm.NormalizeToLf(left)
	rightLF := textnorm.NormalizeToLf(right)
	trailing := strings.HasSuffix(baseLF, "\n")

	line := lineBased(baseLF, leftLF, rightLF, opts.Display, trailing)

	if disabled() {
		warnf(opts.Logger, "%s is set, skipping structured merge for %s", DisablingEnvVar, path)
		return finish(line, style)
	}
	if line.ConflictCount == 0 && !line.HasAdditionalIssues {
		return finish(line, style)
	}

	structuredCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		structuredCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	structured, err := structuredMerge(structuredCtx, path, baseLF, leftLF, rightLF, opts, trailing)
	if err != nil {
		logFallback(opts.Logger, path, err)
		return finish(line, style)
	}

	best := pickBest(structured, line)
	if best.Method != settings.MethodLineBased {
		debugf(opts.Logger, "structured merge of %s succeeded (%s, %d conflicts)", path, best.Method, best.ConflictCount)
	}
	return finish(best, style)
}

// Resolve runs the cascade starting from a single conflicted file: the
// conflict-marker parser reconstructs the three revisions,
// with the revision provider consulted for the true staged contents when
// the markers alone are not enough; failing everything, the input is
// returned as-is with its conflicts counted.
func Resolve(ctx context.Context, path, conflicted string, prov provider.Provider, opts Options) settings.MergeResult {
	style := textnorm.InferNewlineStyle(conflicted)
	if opts.Display.NewlineStyleOverride != nil {
		style = *opts.Display.NewlineStyleOverride
	}
	conflictedLF := textnorm.NormalizeToLf(conflicted)

	parsed, found := diff3.ParseConflicts([]byte(conflictedLF))
	if !found {
		if base, left, right, ok := fetchAll(ctx, path, prov, opts.Logger); ok {
			return Merge(ctx, path, base, left, right, opts)
		}
		warnf(opts.Logger, "%s has no conflict markers and no revisions could be fetched, returning it unchanged", path)
		return settings.MergeResult{Contents: conflicted, Method: settings.MethodLineBased}
	}

	opts.Display = adoptLabels(opts.Display, parsed)
	original := parsedResult(conflictedLF, parsed, trailingOf(conflictedLF))

	// Classic markers drop the base section, so the reconstruction can only
	// approximate it; prefer the provider's exact staged revisions then.
	if missingBaseSections(parsed) {
		if base, left, right, ok := fetchAll(ctx, path, prov, opts.Logger); ok {
			merged := Merge(ctx, path, base, left, right, opts)
			return finish(pickBest(merged, original), style)
		}
	}

	base, left, right, ok := diff3.ExtractRevisions([]byte(conflictedLF))
	if !ok {
		warnf(opts.Logger, "could not reconstruct revisions of %s from its conflict markers", path)
		return finish(original, style)
	}

	merged := Merge(ctx, path, string(base), string(left), string(right), opts)
	return finish(pickBest(merged, original), style)
}

// lineBased produces the cascade's first attempt and counts
// its conflicts by re-parsing its own markers. A line-based
// result always reports additional issues: it may have come out clean only
// because the diff never looked below line granularity.
func lineBased(baseLF, leftLF, rightLF string, display settings.Display, trailing bool) settings.MergeResult {
	style := diff3.StyleClassic
	if display.Diff3 {
		style = diff3.StyleDiff3
	}
	res := diff3.MergeWithOptions([]byte(baseLF), []byte(leftLF), []byte(rightLF), diff3.Options{
		MarkerSize: int(display.ConflictMarkerSize),
		Style:      style,
		LeftLabel:  display.LeftRevisionName,
		BaseLabel:  display.BaseRevisionName,
		RightLabel: display.RightRevisionName,
	})

	contents := matchTrailing(string(res.Merged), trailing)
	count, mass := 0, 0
	if parsed, found := diff3.ParseConflicts([]byte(contents)); found {
		count, mass = conflictStats(parsed)
	}
	return settings.MergeResult{
		Contents:            contents,
		ConflictCount:       count,
		ConflictMass:        mass,
		Method:              settings.MethodLineBased,
		HasAdditionalIssues: true,
	}
}

// structuredMerge runs the full pipeline over LF-normalized revisions:
// detect the language, parse the three revisions concurrently, match Left
// and Right against the Base pivot, classify, merge, and render.
func structuredMerge(ctx context.Context, path, baseLF, leftLF, rightLF string, opts Options, trailing bool) (settings.MergeResult, error) {
	profile := opts.Profile
	if profile == nil {
		var err error
		profile, err = lang.DetectFromFilename(path)
		if err != nil {
			return settings.MergeResult{}, err
		}
	}
	if ctx.Err() != nil {
		return settings.MergeResult{}, mergeerr.Timeout()
	}

	var baseAst, leftAst, rightAst *ast.Ast
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		baseAst, err = ast.New(gctx, path, baseLF, profile, ast.NewArena(len(baseLF)/8))
		return err
	})
	g.Go(func() (err error) {
		leftAst, err = ast.New(gctx, path, leftLF, profile, ast.NewArena(len(leftLF)/8))
		return err
	})
	g.Go(func() (err error) {
		rightAst, err = ast.New(gctx, path, rightLF, profile, ast.NewArena(len(rightLF)/8))
		return err
	})
	if err := g.Wait(); err != nil {
		return settings.MergeResult{}, err
	}

	mopts := matchOptions(profile, len(baseLF)+len(leftLF)+len(rightLF))
	var mbl, mbr *treematch.Matching
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mbl, err = treematch.Match(gctx, baseAst, leftAst, mopts)
		return err
	})
	g.Go(func() (err error) {
		mbr, err = treematch.Match(gctx, baseAst, rightAst, mopts)
		return err
	})
	if err := g.Wait(); err != nil {
		return settings.MergeResult{}, err
	}

	scriptL := editclass.Classify(baseAst, leftAst, mbl)
	scriptR := editclass.Classify(baseAst, rightAst, mbr)

	merger := treemerge.New(baseAst, leftAst, rightAst, mbl, mbr, scriptL, scriptR, profile)
	root, stats, err := merger.Merge(ctx)
	if err != nil {
		return settings.MergeResult{}, err
	}

	contents := render.Render(root, render.Options{
		ConflictMarkerSize: int(opts.Display.ConflictMarkerSize),
		Diff3:              opts.Display.Diff3,
		Compact:            opts.Display.Compact,
		LeftRevisionName:   opts.Display.LeftRevisionName,
		BaseRevisionName:   opts.Display.BaseRevisionName,
		RightRevisionName:  opts.Display.RightRevisionName,
	}, baseLF, leftLF, rightLF, textnorm.Lf, trailing)

	method := settings.MethodFullyStructured
	if stats.ConflictCount > 0 {
		method = settings.MethodStructuredResolution
	}
	return settings.MergeResult{
		Contents:            contents,
		ConflictCount:       stats.ConflictCount,
		ConflictMass:        stats.ConflictMass,
		Method:              method,
		HasAdditionalIssues: stats.HasAdditionalIssues,
	}, nil
}

// auxiliaryMatchThreshold is the combined input size beyond which the
// cheaper auxiliary matcher configuration (no RTED recovery) is used, so
// the quadratic refinement step never dominates a deadline on big files.
const auxiliaryMatchThreshold = 256 << 10

// matchOptions tunes the matcher per profile and input size: tiny-grammar
// languages like JSON anchor on every height, and large inputs drop the
// RTED recovery pass.
func matchOptions(profile *lang.Profile, inputBytes int) treematch.Options {
	o := treematch.Default()
	if inputBytes > auxiliaryMatchThreshold {
		o = treematch.Auxiliary()
	}
	if profile.Name == "json" {
		o.MinHeight = 0
	}
	return o
}

// pickBest implements the cascade's preference order: fewer conflicts,
// then smaller conflict mass, then the more structured method.
func pickBest(a, b settings.MergeResult) settings.MergeResult {
	switch {
	case a.ConflictCount != b.ConflictCount:
		if a.ConflictCount < b.ConflictCount {
			return a
		}
		return b
	case a.ConflictMass != b.ConflictMass:
		if a.ConflictMass < b.ConflictMass {
			return a
		}
		return b
	case b.Method.Better(a.Method):
		return b
	default:
		return a
	}
}

func finish(res settings.MergeResult, style textnorm.Style) settings.MergeResult {
	res.Contents = textnorm.ImitateNewlineStyle(res.Contents, style)
	return res
}

func disabled() bool {
	switch strings.ToLower(os.Getenv(DisablingEnvVar)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// fetchAll pulls all three staged revisions through the provider,
// reporting ok=false (never an error; provider failures only degrade
// structured merging) when any fetch fails.
func fetchAll(ctx context.Context, path string, prov provider.Provider, logger *logrus.Entry) (base, left, right string, ok bool) {
	if prov == nil {
		return "", "", "", false
	}
	var texts [3]string
	for i, rev := range []revision.Tag{revision.Base, revision.Left, revision.Right} {
		text, err := prov.Fetch(ctx, path, rev)
		if err != nil {
			// A file with no higher index stages simply isn't mid-merge;
			// that's routine, not a failure worth warning about.
			if mergeerr.IsProviderNotConflicted(err) {
				debugf(logger, "%s is not conflicted in the index", path)
			} else {
				warnf(logger, "revision provider failed for %s revision of %s: %v", rev, path, err)
			}
			return "", "", "", false
		}
		texts[i] = text
	}
	return texts[0], texts[1], texts[2], true
}

// parsedResult wraps an already-conflicted file as a line-based result so
// it can compete in pickBest against a re-merge of its reconstructed
// revisions.
func parsedResult(contentsLF string, parsed diff3.ParsedFile, trailing bool) settings.MergeResult {
	count, mass := conflictStats(parsed)
	return settings.MergeResult{
		Contents:            matchTrailing(contentsLF, trailing),
		ConflictCount:       count,
		ConflictMass:        mass,
		Method:              settings.MethodLineBased,
		HasAdditionalIssues: true,
	}
}

// conflictStats counts regions and sums each region's mass, the mass being
// the largest alternative present.
func conflictStats(parsed diff3.ParsedFile) (count, mass int) {
	count = len(parsed.Conflicts)
	for _, c := range parsed.Conflicts {
		m := len(c.Left)
		if len(c.Right) > m {
			m = len(c.Right)
		}
		if len(c.Base) > m {
			m = len(c.Base)
		}
		mass += m
	}
	return count, mass
}

// adoptLabels keeps the labels a previous merge already wrote into the
// conflicted file, unless the caller overrode them explicitly.
func adoptLabels(d settings.Display, parsed diff3.ParsedFile) settings.Display {
	if len(parsed.Conflicts) == 0 {
		return d
	}
	first := parsed.Conflicts[0]
	defaults := settings.DefaultDisplay()
	if (d.LeftRevisionName == "" || d.LeftRevisionName == defaults.LeftRevisionName) && first.LeftLabel != "" {
		d.LeftRevisionName = first.LeftLabel
	}
	if (d.BaseRevisionName == "" || d.BaseRevisionName == defaults.BaseRevisionName) && first.BaseLabel != "" {
		d.BaseRevisionName = first.BaseLabel
	}
	if (d.RightRevisionName == "" || d.RightRevisionName == defaults.RightRevisionName) && first.RightLabel != "" {
		d.RightRevisionName = first.RightLabel
	}
	return d
}

func missingBaseSections(parsed diff3.ParsedFile) bool {
	for _, c := range parsed.Conflicts {
		if !c.HasBase {
			return true
		}
	}
	return false
}

func trailingOf(s string) bool { return strings.HasSuffix(s, "\n") }

func matchTrailing(s string, trailing bool) string {
	switch {
	case trailing && !strings.HasSuffix(s, "\n") && s != "":
		return s + "\n"
	case !trailing && strings.HasSuffix(s, "\n"):
		return strings.TrimSuffix(s, "\n")
	default:
		return s
	}
}

func logFallback(logger *logrus.Entry, path string, err error) {
	kind, _ := mergeerr.KindOf(err)
	switch kind {
	case mergeerr.KindUnsupportedLanguage:
		debugf(logger, "no language profile for %s, keeping line-based merge", path)
	case mergeerr.KindParseError:
		warnf(logger, "a revision of %s does not parse, keeping line-based merge: %v", path, err)
	case mergeerr.KindTimeout:
		warnf(logger, "structured merge of %s timed out, keeping line-based merge", path)
	default:
		warnf(logger, "structured merge of %s failed, keeping line-based merge: %v", path, err)
	}
}

func warnf(logger *logrus.Entry, format string, args ...any) {
	if logger != nil {
		logger.Warnf(format, args...)
	}
}

func debugf(logger *logrus.Entry, format string, args ...any) {
	if logger != nil {
		logger.Debugf(format, args...)
	}
}
