// utils/http.go
package utils

import (
	"net/http"
)

// HTTPClient is shared by outbound service clients. NFT service calls carry
// no client deadline; only the request context can end them.
var HTTPClient = &http.Client{}
