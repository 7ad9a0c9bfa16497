package graphdir

import (
	"errors"

	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"github.com/entra-ops/entra-provision/pkg/provisioning"
)

const CodeSessionClosed = "session_closed"

// remoteError maps any SDK failure onto a RemoteError, lifting the code and
// message out of OData error bodies.
func remoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	re := &provisioning.RemoteError{Op: op, Message: err.Error(), Err: err}

	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		if mainErr := odataErr.GetErrorEscaped(); mainErr != nil {
			if code := mainErr.GetCode(); code != nil {
				re.Code = *code
			}
			if msg := mainErr.GetMessage(); msg != nil && *msg != "" {
				re.Message = *msg
			}
		}
	}
	return re
}
