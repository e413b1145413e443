package main

// General API documentation for swaggo. Regenerate docs/ with `swag init -g cmd/mantad/docs.go`.
//
// @title           mantacam API
// @version         1.0
// @description     HTTP API for Allied Vision camera enumeration, features and frame acquisition.
//
// @contact.name   mantacam maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
