// Package lib holds modules that do not fit strictly into other layers.
//
// Today that is background job processing on Redis/Asynq.
package lib
