package main

//go:generate swag init -g cmd/cmms/main.go -o docs

// @title           CMMS Sync API
// @version         0.1.0
// @description     Remote maintenance data sync, sync audit logs and operator notifications.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
