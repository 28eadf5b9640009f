package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f-str/radishmq/internal/broker"
)

func (a *API) listMessageTopics(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.broker.ListMessageTopics())
}

func (a *API) createMessageTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if !a.decode(w, r, &req) {
		return
	}
	model, err := a.broker.CreateMessageTopic(req.Name)
	if errors.Is(err, broker.ErrTopicAlreadyExists) {
		w.WriteHeader(http.StatusConflict)
		return
	}
	a.writeJSON(w, http.StatusCreated, model)
}

func (a *API) getMessageTopic(w http.ResponseWriter, r *http.Request) {
	model, err := a.broker.LookupMessageTopic(chi.URLParam(r, "topic"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, model)
}

func (a *API) deleteMessageTopic(w http.ResponseWriter, r *http.Request) {
	if err := a.broker.DeleteMessageTopic(chi.URLParam(r, "topic")); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Membership and publish mutations answer 204 even when the broker ignored
// the call; precondition violations are logged inside the engine and must not
// leak details to unauthenticated callers.

func (a *API) addMessagePublisher(w http.ResponseWriter, r *http.Request) {
	var req publisherRequest
	if !a.decode(w, r, &req) {
		return
	}
	_ = a.broker.AddPublisherToMessageTopic(chi.URLParam(r, "topic"), req.Publisher)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeMessagePublisher(w http.ResponseWriter, r *http.Request) {
	_ = a.broker.RemovePublisherFromMessageTopic(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) publishMessage(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !a.decode(w, r, &req) {
		return
	}
	_ = a.broker.PublishToMessageTopic(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"), req.Data)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addMessageSubscriber(w http.ResponseWriter, r *http.Request) {
	var req subscriberRequest
	if !a.decode(w, r, &req) {
		return
	}
	_ = a.broker.AddSubscriberToMessageTopic(chi.URLParam(r, "topic"), req.Subscriber)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeMessageSubscriber(w http.ResponseWriter, r *http.Request) {
	_ = a.broker.RemoveSubscriberFromMessageTopic(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) isNewData(w http.ResponseWriter, r *http.Request) {
	hasNew, err := a.broker.NewDataForSubscriber(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, newDataResponse{NewData: hasNew})
}

func (a *API) getData(w http.ResponseWriter, r *http.Request) {
	data, err := a.broker.FetchDataForSubscriber(chi.URLParam(r, "topic"), chi.URLParam(r, "identifier"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if data == nil {
		data = []broker.Payload{}
	}
	a.writeJSON(w, http.StatusOK, dataResponse{Data: data})
}
