package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/stager/internal/catalog"
	"github.com/mesh-intelligence/stager/internal/ledger"
	"github.com/mesh-intelligence/stager/internal/library"
	"github.com/mesh-intelligence/stager/internal/logger"
	"github.com/mesh-intelligence/stager/internal/paths"
	"github.com/mesh-intelligence/stager/pkg/stager"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// session is an attached backend guarded by the data directory lock.
type session struct {
	dataDir string
	log     *logger.Logger
	lock    *flock.Flock
	backend types.Backend
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	library *library.Library
}

// open resolves the data directory, takes its lock and attaches the
// configured backend. The caller must close the session.
func (a *app) open() (*session, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.file.DataDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	log, err := logger.New(a.file.LogMode)
	if err != nil {
		return nil, sysError(fmt.Errorf("create logger: %w", err))
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, sysError(fmt.Errorf("create data dir: %w", err))
	}

	lock := flock.New(paths.LockFile(dataDir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, sysError(fmt.Errorf("acquire lock: %w", err))
	}
	if !ok {
		return nil, sysError(fmt.Errorf("data dir %s is in use by another stager process", dataDir))
	}

	backend, err := stager.Open(a.file.StoreConfig(dataDir))
	if err != nil {
		_ = lock.Unlock()
		return nil, sysError(err)
	}
	return &session{
		dataDir: dataDir,
		log:     log,
		lock:    lock,
		backend: backend,
		ledger: ledger.New(backend.Versions(), backend.Assets(),
			ledger.WithLogger(log),
			ledger.WithModels(a.file.Models),
		),
		catalog: catalog.New(backend, log),
		library: library.New(backend),
	}, nil
}

func (s *session) close() error {
	err := s.backend.Detach()
	if uerr := s.lock.Unlock(); uerr != nil {
		err = errors.Join(err, fmt.Errorf("release lock: %w", uerr))
	}
	s.log.Sync()
	return err
}

// withSession runs fn against an open session and closes it afterwards.
func (a *app) withSession(fn func(s *session) error) (err error) {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = sysError(cerr)
		}
	}()
	return fn(s)
}
