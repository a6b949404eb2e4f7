package service

import "aqueduct/internal"

var logger = internal.Logger
