package asynq

const (
	// ExpirePointsTask sweeps earn entries past their expiry date so that
	// balances stop counting them.
	ExpirePointsTask = "reward:expire_points"
)
