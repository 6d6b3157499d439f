package donation

import (
	"go.uber.org/fx"
)

var Module = fx.Module("donation.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
