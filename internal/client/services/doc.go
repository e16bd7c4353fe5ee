// Package services contains the application services of the eventdesk
// client. They sit between the front end and the API client: the auth
// service owns the credential store writes of login and logout, the event
// service runs the workflow guard before every mutation and the
// notification service lists inbox items.
package services
