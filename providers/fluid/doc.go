// Package fluid is the commerce platform REST client: callback registration,
// order lookup, external id write-back and fulfillment creation.
package fluid
