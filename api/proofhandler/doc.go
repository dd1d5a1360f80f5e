// Package proofhandler serves proof set/get/verify requests over HTTP.
package proofhandler
