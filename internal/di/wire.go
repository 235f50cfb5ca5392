//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"OraclePortfolio/pkg/config"
	"OraclePortfolio/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		InfraSet,
		EngineSet,
		AppSet,
	)
	return nil, nil, nil
}
