package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// Exit codes a generator command uses to signal non-fatal outcomes.
const (
	ExitSeedRejected = 3
	ExitTempFail     = 75
)

// Environment passed to a generator command.
const (
	EnvPrompt   = "STAGER_PROMPT"
	EnvModel    = "STAGER_MODEL"
	EnvSize     = "STAGER_SIZE"
	EnvSeed     = "STAGER_SEED"
	EnvMimeType = "STAGER_MIME_TYPE"
)

// CommandGenerator runs an external program as the image provider. The
// input image arrives on stdin with the request in the environment; the
// generated image is read from stdout.
//
// Exit status 0 is success, ExitSeedRejected reports a refused seed,
// ExitTempFail is a transient error worth retrying, and any other status
// is an upstream failure carrying stderr as its message.
type CommandGenerator struct {
	binary string
	args   []string
}

var _ types.ImageGenerator = (*CommandGenerator)(nil)

// NewCommandGenerator parses a command line such as "genimg --fast".
func NewCommandGenerator(command string) (*CommandGenerator, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("generator command required")
	}
	return &CommandGenerator{binary: fields[0], args: fields[1:]}, nil
}

// Generate runs the command once.
func (g *CommandGenerator) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResult, error) {
	cmd := exec.CommandContext(ctx, g.binary, g.args...)
	cmd.Env = append(os.Environ(),
		EnvPrompt+"="+req.Prompt,
		EnvModel+"="+req.Model,
		EnvSize+"="+req.Size,
		EnvMimeType+"="+req.MimeType,
	)
	if req.Seed != nil {
		cmd.Env = append(cmd.Env, EnvSeed+"="+strconv.FormatInt(*req.Seed, 10))
	}
	cmd.Stdin = bytes.NewReader(req.Image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return types.GenerateResult{}, fmt.Errorf("running %s: %w", g.binary, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = exitErr.Error()
		}
		switch exitErr.ExitCode() {
		case ExitTempFail:
			return types.GenerateResult{}, fmt.Errorf("%s: %s", g.binary, msg)
		case ExitSeedRejected:
			return types.GenerateResult{Success: false, SeedRejected: true, Error: msg}, nil
		default:
			return types.GenerateResult{Success: false, Error: msg}, nil
		}
	}

	if stdout.Len() == 0 {
		return types.GenerateResult{Success: false, Error: g.binary + " returned no image"}, nil
	}
	data := stdout.Bytes()
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return types.GenerateResult{Success: true, Image: data, MimeType: mimeType}, nil
}
