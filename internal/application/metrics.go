package application

import "expvar"

var (
	usersCreated = expvar.NewInt("users_created_total")
	createFailed = expvar.NewInt("users_create_failed_total")
)
