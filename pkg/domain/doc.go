// Package domain holds the types shared between the savr API server,
// the task worker and their database layers: users and follows,
// recipes with their ingredients and steps, meal plans with shares
// and invitations, and recipe import requests.
package domain
