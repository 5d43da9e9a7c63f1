package controllers

import (
	"encoding/json"
	"log"
	"net/http"
)

func ReturnHttpBadResponse(rw http.ResponseWriter, response string) {
	ReturnHttpError(rw, http.StatusBadRequest, response)
}

func ReturnHttpError(rw http.ResponseWriter, status int, response string) {
	rw.Header().Set("Content-type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(map[string]string{"error": response})
	log.Println(response)
}

func ReturnHttpJSON(rw http.ResponseWriter, status int, response interface{}) {
	rw.Header().Set("Content-type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(response); err != nil {
		log.Println("ReturnHttpJSON encode error: " + err.Error())
	}
}
