package common

import (
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.uber.org/zap"
)

// Basic project metadata
const (
	ProjectName    = "storefront-bot"
	ProjectVersion = "0.3.0"
)

// InitHertzLogger routes hlog output through the zap logger.
func InitHertzLogger() { hlog.SetOutput(zap.NewStdLog(L()).Writer()) }
