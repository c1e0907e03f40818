package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/stager/internal/ledger"
	"github.com/mesh-intelligence/stager/internal/logger"
	"github.com/mesh-intelligence/stager/internal/prompt"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// Defaults for Runner options.
const (
	DefaultAttempts    = 3
	DefaultRetryDelay  = 2 * time.Second
	DefaultConcurrency = 2
)

// Outcome reports one generation run.
type Outcome struct {
	VersionID    string           `json:"version_id"`
	Prompt       prompt.Result    `json:"prompt"`
	Mismatch     *prompt.Mismatch `json:"mismatch,omitempty"`
	SeedRejected bool             `json:"seed_rejected"`
	Failed       bool             `json:"failed"`
	Error        string           `json:"error,omitempty"`
	OutputPath   string           `json:"output_path,omitempty"`
}

// Runner drives generation for existing versions.
type Runner struct {
	ledger   *ledger.Ledger
	assets   types.Store[*types.Asset]
	gen      types.ImageGenerator
	files    Files
	log      *logger.Logger
	attempts uint
	delay    time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRetry sets how many times a transient provider error is attempted
// and the pause between attempts. attempts below 1 is treated as 1.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(r *Runner) {
		if attempts < 1 {
			attempts = 1
		}
		r.attempts = uint(attempts)
		r.delay = delay
	}
}

// NewRunner creates a Runner.
func NewRunner(l *ledger.Ledger, assets types.Store[*types.Asset], gen types.ImageGenerator, files Files, opts ...Option) *Runner {
	r := &Runner{
		ledger:   l,
		assets:   assets,
		gen:      gen,
		files:    files,
		log:      logger.Nop(),
		attempts: DefaultAttempts,
		delay:    DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run generates the image for one pending version and records the result.
// The returned error is non-nil only when the ledger or stores fail; a
// provider failure is reported through Outcome.Failed.
func (r *Runner) Run(ctx context.Context, versionID string) (Outcome, error) {
	prep, err := r.ledger.PreparePrompt(versionID)
	if err != nil {
		return Outcome{}, err
	}
	v := prep.Version
	if g := v.Generation(); g == types.GenerationCompleted || g == types.GenerationFailed {
		return Outcome{}, &types.InvariantError{
			Reason:    types.ReasonGenerationClosed,
			VersionID: v.VersionID,
			Detail:    "attempt already " + string(g),
		}
	}
	out := Outcome{VersionID: v.VersionID, Prompt: prep.Prompt, Mismatch: prep.Mismatch}
	log := r.log.With("version_id", v.VersionID)

	inputPath, err := r.inputPath(v)
	if err != nil {
		return out, err
	}
	image, mimeType, err := r.files.Load(ctx, inputPath)
	if err != nil {
		return r.fail(ctx, out, fmt.Sprintf("loading input image: %v", err))
	}

	req := types.GenerateRequest{
		Prompt:   prep.Prompt.FullPrompt,
		Image:    image,
		MimeType: mimeType,
		Model:    ledger.SelectModel("", v.Model, ""),
		Size:     v.QualityTier.ImageSize(),
		Seed:     v.Seed,
	}
	res, err := r.generate(ctx, req)
	if err == nil && !res.Success && res.SeedRejected && req.Seed != nil {
		log.Info("seed rejected, retrying without seed")
		out.SeedRejected = true
		req.Seed = nil
		res, err = r.generate(ctx, req)
	}
	if err != nil {
		return r.fail(ctx, out, err.Error())
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "generation failed"
		}
		return r.fail(ctx, out, msg)
	}

	path, err := r.files.Save(ctx, v, res.Image, res.MimeType)
	if err != nil {
		return r.fail(ctx, out, fmt.Sprintf("saving output: %v", err))
	}
	if _, err := r.ledger.SetOutput(v.VersionID, path, ""); err != nil {
		return out, err
	}
	done, err := r.ledger.SetGenerationStatus(v.VersionID, types.GenerationCompleted, "")
	if err != nil {
		return out, err
	}
	// A version approved while generating keeps its approved status so
	// both approval markers agree. Final renders still record final_ready.
	if !done.IsApproved() || v.QualityTier == types.TierFinal {
		if _, err := r.ledger.SetStatus(v.VersionID, readyStatus(v.QualityTier), ""); err != nil {
			return out, err
		}
	}
	out.OutputPath = path
	log.Info("generation completed", "output_path", path, "model", req.Model)
	return out, nil
}

// RunAll runs many versions with at most concurrency in flight. Outcomes
// are returned in input order. A ledger error on one version is reported
// in its Outcome and in the joined error; the other versions still run.
func (r *Runner) RunAll(ctx context.Context, versionIDs []string, concurrency int) ([]Outcome, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	outcomes := make([]Outcome, len(versionIDs))
	errs := make([]error, len(versionIDs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range versionIDs {
		i, id := i, id
		g.Go(func() error {
			o, err := r.Run(ctx, id)
			o.VersionID = id
			if err != nil {
				o.Error = err.Error()
				errs[i] = fmt.Errorf("running version %s: %w", id, err)
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, errors.Join(errs...)
}

// generate calls the provider, retrying returned errors. A result with
// Success false is a provider answer, not a transient error, and is not
// retried.
func (r *Runner) generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResult, error) {
	var res types.GenerateResult
	err := retry.Do(
		func() error {
			var err error
			res, err = r.gen.Generate(ctx, req)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn("generation attempt failed", "attempt", n+1, "error", err)
		}),
	)
	return res, err
}

// fail records a provider-side failure on the version. When ctx is done
// the attempt is left pending and the cancellation is returned instead.
func (r *Runner) fail(ctx context.Context, out Outcome, msg string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("generation interrupted: %w", err)
	}
	out.Failed = true
	out.Error = msg
	if _, err := r.ledger.SetGenerationStatus(out.VersionID, types.GenerationFailed, msg); err != nil {
		return out, err
	}
	if _, err := r.ledger.SetStatus(out.VersionID, types.StatusError, msg); err != nil {
		return out, err
	}
	r.log.Warn("generation failed", "version_id", out.VersionID, "error", msg)
	return out, nil
}

// inputPath picks the image a version is generated from: the output of its
// first source version, or the asset's original.
func (r *Runner) inputPath(v *types.Version) (string, error) {
	for _, id := range v.SourceVersionIDs {
		src, err := r.ledger.Get(id)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if src.OutputPath != "" {
			return src.OutputPath, nil
		}
	}
	asset, err := r.assets.Get(v.AssetID)
	if err != nil {
		return "", fmt.Errorf("getting asset %s: %w", v.AssetID, err)
	}
	return asset.OriginalPath, nil
}

func readyStatus(tier types.QualityTier) types.Status {
	switch tier {
	case types.TierHQPreview:
		return types.StatusHQReady
	case types.TierNative4K:
		return types.StatusNative4KReady
	case types.TierFinal:
		return types.StatusFinalReady
	default:
		return types.StatusPreviewReady
	}
}
