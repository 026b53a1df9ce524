// Package hashroute is a fragment-based router with view binding.
//
// A Router maps "#"-prefixed names to routes. A route has an optional view
// (a detached list of dom nodes) and a set of consumers told about
// activation transitions. View binds are consumers that keep a host node
// showing a route's view; anonymous binds follow whichever route is active.
//
// # Activation
//
// Activate notifies the new route's consumers, then the anonymous binds,
// then the previous route's consumers with active=false, and finally
// records the new active route. Activating the active route, or a route that
// does not exist, does nothing. The address bar is the durable state:
// Activate writes it, and the router Listens to it so a browser hash change
// becomes a Reconcile.
//
//	r := hashroute.New(
//	    hashroute.WithScheduler(sessionLoop),
//	    hashroute.WithLocation(addressBar),
//	)
//	r.Listen(addressBar)
//	r.RegisterView("#home", dom.H1("Welcome"))
//	r.ActiveBind(mainNode)
//	r.Activate("#home")
//
// # Directives
//
// Install registers three attribute directives on a directive.Registry:
//
//	<template route="#home">...</template>   registers a view
//	<aside route="#writs"></aside>           binds to one route
//	<main route-active></main>               binds to the active route
//	<a route-link="#editor">Edit</a>         activates on click
//
// # Concurrency
//
// A Router is single-threaded. Registration schedules a Reconcile on the
// router's Scheduler; everything else runs synchronously on the caller,
// which must be the goroutine that runs that scheduler.
package hashroute
