package spec

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	oerrors "github.com/opmodel/tk/internal/errors"
)

//go:embed schema.cue
var environmentSchemaCUE []byte

// validator checks raw environment objects against #Environment. A cue
// context is not safe for concurrent use, so access is serialized.
type validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

var (
	sharedValidator     *validator
	sharedValidatorErr  error
	sharedValidatorOnce sync.Once
)

func getValidator() (*validator, error) {
	sharedValidatorOnce.Do(func() {
		ctx := cuecontext.New()
		schema := ctx.CompileBytes(environmentSchemaCUE)
		if schema.Err() != nil {
			sharedValidatorErr = fmt.Errorf("compiling environment schema: %w", schema.Err())
			return
		}
		sharedValidator = &validator{
			ctx:    ctx,
			schema: schema.LookupPath(cue.ParsePath("#Environment")),
		}
	})
	return sharedValidator, sharedValidatorErr
}

// Validate checks a raw environment object against the environment schema.
// The data field is not inspected. The returned error names every
// offending field and wraps ErrValidation.
func Validate(obj map[string]any) error {
	v, err := getValidator()
	if err != nil {
		return err
	}

	withoutData := make(map[string]any, len(obj))
	for k, val := range obj {
		if k != "data" {
			withoutData[k] = val
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	value := v.ctx.Encode(withoutData)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: encoding environment: %w", oerrors.ErrValidation, err)
	}

	if err := v.schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		var fields, msgs []string
		for _, e := range cueerrors.Errors(err) {
			fields = append(fields, strings.Join(e.Path(), "."))
			msgs = append(msgs, e.Error())
		}
		return &oerrors.DetailError{
			Type:    oerrors.ErrValidation.Error(),
			Message: "invalid environment: " + strings.Join(msgs, "; "),
			Field:   strings.Join(fields, ", "),
			Cause:   oerrors.ErrValidation,
		}
	}
	return nil
}
