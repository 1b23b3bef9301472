// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en cmd/warung):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "warung"})
//	defer logger.Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Register"))
//	log.Info("principal registered", logger.PrincipalID(p.ID))
//
// Nunca se loguean secretos ni digests. Los login handles pasan por Handle(), que los enmascara.
package logger
