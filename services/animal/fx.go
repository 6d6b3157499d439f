package animal

import (
	"go.uber.org/fx"
)

var Module = fx.Module("animal.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
