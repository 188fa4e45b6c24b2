package config

import "errors"

var ErrInvalidGatewayEnvironment = errors.New("gateway environment must be production or sandbox")
