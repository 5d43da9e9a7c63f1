package routes

import (
	"github.com/gorilla/mux"
	"github.com/voyage-finance/voyage-recovery/http_server/controllers"
)

func RecoveryRoute(router *mux.Router, deps controllers.RecoveryDeps) {
	requireToken := controllers.RequireAPIToken(deps.APIToken)
	router.Handle("/recovery/execute", requireToken(controllers.ExecuteRecovery(deps))).Methods("POST")
	router.HandleFunc("/recovery/{chainId}/{safe}", controllers.GetRecoveryState(deps)).Methods("GET")
	router.HandleFunc("/recovery/{chainId}/{safe}/refetch", controllers.RefetchRecovery(deps)).Methods("POST")
}
