// Package mateauth is the account-identity layer of the runningmate
// application: registration, email/password login, Kakao federated login,
// session-scoped identity resolution, profile updates with forced re-auth on
// password change, and self-service email/password recovery.
//
// # Architecture
//
// The center is Auth, the only component allowed to transition a session's
// identity state. Each client session owns a SessionState that is exactly one
// of anonymous, local, or federated; handlers resolve "who is logged in"
// through Auth.Current instead of probing session slots, so the two login
// paths converge in one place.
//
// Persistence sits behind the MateStore interface with filesystem
// (stores), GORM (stores/gorm) and Cloud Datastore (stores/gae)
// implementations. Email uniqueness is a store-level constraint so
// concurrent registrations cannot race past an application-level check.
//
// Transport-side session mechanics come from alexedwards/scs; the handlers
// keep a typed identity snapshot in the session data and mirror it into a
// live per-token SessionState for in-process serialization of session
// operations.
//
// # Quick Start
//
//	store := stores.NewFSMateStore("./data")
//	auth := mateauth.New(store)
//	recovery := mateauth.NewRecovery(store)
//	handlers := mateauth.NewHandlers(auth, recovery)
//
//	kakao := oauth2.NewKakaoOAuth2("", "", "", handlers.HandleFederatedUser)
//	handlers.AddAuth("/auth/kakao", kakao)
//
//	http.ListenAndServe(":8080", handlers.Handler())
package mateauth
