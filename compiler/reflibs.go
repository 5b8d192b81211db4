package compiler

import (
	"go.uber.org/zap"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/logger"
)

// RefLibraries are previously built type libraries the compiler may refer
// to instead of defining the types again
type RefLibraries struct {
	libraries []*cls.Universe
	log       *zap.SugaredLogger
}

// NewRefLibraries creates the set of referenced libraries
func NewRefLibraries(libraries ...*cls.Universe) *RefLibraries {
	return &RefLibraries{libraries: libraries, log: logger.Named("reflibs")}
}

// LoadRefLibraries loads each manifest file into its own library
func LoadRefLibraries(paths ...string) (*RefLibraries, error) {
	libraries := make([]*cls.Universe, 0, len(paths))
	for _, path := range paths {
		u := cls.NewUniverse()
		if _, err := cls.LoadManifestFile(path, u); err != nil {
			return nil, errors.Wrapf(err, "failed to load referenced library %s", path)
		}
		libraries = append(libraries, u)
	}
	return NewRefLibraries(libraries...), nil
}

// Lookup finds a user type by full name. A type with the right name but a
// different repository id is not the type searched for; it is ignored.
func (r *RefLibraries) Lookup(fullName, repositoryID string) (*cls.Type, bool) {
	if r == nil {
		return nil, false
	}
	for _, lib := range r.libraries {
		for _, t := range lib.Types() {
			if t.FullName() != fullName {
				continue
			}
			if repositoryID != "" && t.RepositoryID() != repositoryID {
				r.log.Warnw("type in referenced library has a different repository id, not used",
					logger.FieldType, fullName,
					logger.FieldRepositoryID, t.RepositoryID(),
					"expected", repositoryID)
				continue
			}
			return t, true
		}
	}
	return nil, false
}

// Len returns the number of libraries
func (r *RefLibraries) Len() int {
	if r == nil {
		return 0
	}
	return len(r.libraries)
}
