// Package itinerary turns transit directions responses into flat route
// options for the route dialogue and clients.
package itinerary
