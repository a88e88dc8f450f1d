// Package zaphandler adapts a go.uber.org/zap logger into a lager
// sink. The envelope's timestamp, severity name, and origin travel as
// zap fields; severities above error collapse to zap's Error so the
// backend never calls os.Exit or panics on the delivery path.
package zaphandler
