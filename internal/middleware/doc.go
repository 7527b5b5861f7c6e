/*
Package middleware holds the request pipeline stages of the API.

The stages are registered by the server in a fixed order: the identity assigner,
the access logger, the security header policy, panic recovery, and the JSON body
parser, in front of the route handlers. ErrorHandler is installed as the echo
error handler and is the single outermost boundary for failures.
*/
package middleware
