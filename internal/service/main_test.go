package service

import (
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/Stockline-Systems/inventory/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}
