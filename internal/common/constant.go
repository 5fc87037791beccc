// Package common contains shared constants and sentinel errors used across
// the back-office server and its CLI client.
package common

// UserIDHeaderName is the HTTP header carrying an already authenticated actor
// id when the server runs behind a trusted gateway.
const UserIDHeaderName = "X-User-Id"

// AuthorizationHeaderName carries "Bearer <access token>" on API requests.
const AuthorizationHeaderName = "Authorization"

// MoneyScale is the number of decimal places of the currency minor unit.
const MoneyScale = 2
