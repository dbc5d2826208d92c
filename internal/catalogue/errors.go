package catalogue

import (
	"errors"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// ErrMalformedCatalogue is returned for catalogue data that cannot be used:
// invalid JSON, missing fields, empty groups or out of range values.
var ErrMalformedCatalogue = errors.New("malformed catalogue")

// KindMalformed tags catalogue errors.
const KindMalformed ftag.Kind = "malformed_catalogue"

func malformed(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fault.Wrap(ErrMalformedCatalogue,
		fmsg.WithDesc(msg, "The instrument catalogue is invalid: "+msg),
		ftag.With(KindMalformed),
	)
}
