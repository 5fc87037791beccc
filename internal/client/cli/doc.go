// Package cli is the back-office command-line client.
//
// Commands map one-to-one onto the REST API:
//
//	backoffice register | login | logout | whoami
//	backoffice invoice create | update | issue | get | list | history
//	backoffice shipment create | get | list
//	backoffice document upload | url | download
//
// The session (user name and token pair) is kept in a local SQLite file so
// consecutive invocations stay logged in; an expired access token is rotated
// transparently using the stored refresh token.
package cli
