package main

// General API documentation for swaggo. Run `swag init -g cmd/ncnnd/docs.go`
// to regenerate docs.
//
// @title           ncnnd API
// @version         1.0
// @description     HTTP API for serving ncnn neural network models.
//
// @contact.name   ncnnd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
