package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/gorilla/mux"
)

type userResponse struct {
	Id       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Image    string `json:"image"`
	IsOnline bool   `json:"isOnline"`
}

type messageResponse struct {
	Id           string    `json:"_id"`
	Conversation string    `json:"conversation"`
	Sender       string    `json:"sender"`
	MessageType  string    `json:"messageType"`
	Content      string    `json:"content"`
	FileName     string    `json:"fileName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type conversationViewResponse struct {
	Id           string           `json:"_id"`
	Participants []string         `json:"participants"`
	IsGroup      bool             `json:"isGroup"`
	GroupName    string           `json:"groupName,omitempty"`
	GroupImage   string           `json:"groupImage,omitempty"`
	Admin        string           `json:"admin,omitempty"`
	Name         string           `json:"name,omitempty"`
	Image        string           `json:"image,omitempty"`
	IsOnline     bool             `json:"isOnline"`
	LastMessage  *messageResponse `json:"lastMessage"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		Id:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Image:    user.ImageUrl,
		IsOnline: user.IsOnline,
	}
}

func toMessageResponse(message models.Message) messageResponse {
	return messageResponse{
		Id:           message.ID,
		Conversation: message.ConversationId,
		Sender:       message.SenderId,
		MessageType:  string(message.Type),
		Content:      message.Content,
		FileName:     message.FileName,
		CreatedAt:    message.CreatedAt,
	}
}

func (s *Server) ensureUser(w http.ResponseWriter, r *http.Request) {
	err := s.service.EnsureUser(r.Context(), identityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.service.GetCurrentUser(r.Context(), identityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

func (s *Server) listOtherUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListOtherUsers(r.Context(), identityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setPresence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	identity := identityFromCtx(r.Context())
	var token string
	if identity != nil {
		token = identity.TokenIdentifier
	}

	if err := s.service.SetPresence(r.Context(), token, req.Online); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	err := s.service.UpdateProfile(r.Context(), identityFromCtx(r.Context()), req.Name, req.Image)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reconcileDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := s.service.ReconcileDuplicates(r.Context(), identityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Removed int64 `json:"removed"`
	}{Removed: removed})
}

func (s *Server) createOrGetConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Participants []string `json:"participants"`
		IsGroup      bool     `json:"isGroup"`
		GroupName    string   `json:"groupName"`
		GroupImage   string   `json:"groupImage"`
		Admin        string   `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	id, err := s.service.CreateOrGetConversation(
		r.Context(),
		identityFromCtx(r.Context()),
		req.Participants,
		req.IsGroup,
		req.GroupName,
		req.GroupImage,
		req.Admin,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Id string `json:"_id"`
	}{Id: id})
}

func (s *Server) myConversations(w http.ResponseWriter, r *http.Request) {
	views, err := s.service.MyConversations(r.Context(), identityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]conversationViewResponse, 0, len(views))
	for _, view := range views {
		item := conversationViewResponse{
			Id:           view.ID,
			Participants: view.ParticipantsId,
			IsGroup:      view.IsGroup,
			GroupName:    view.GroupName,
			GroupImage:   view.GroupImageUrl,
			Admin:        view.AdminId,
			Name:         view.CounterpartName,
			Image:        view.CounterpartImageUrl,
			IsOnline:     view.CounterpartOnline,
		}
		if view.LastMessage != nil {
			message := toMessageResponse(*view.LastMessage)
			item.LastMessage = &message
		}
		resp = append(resp, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) kickParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	err := s.service.KickParticipant(r.Context(), identityFromCtx(r.Context()), mux.Vars(r)["id"], req.UserId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.DeleteConversation(r.Context(), identityFromCtx(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success         bool  `json:"success"`
		MessagesDeleted int64 `json:"messagesDeleted"`
		BlobsDeleted    int   `json:"blobsDeleted"`
		BlobsFailed     int   `json:"blobsFailed"`
	}{
		Success:         true,
		MessagesDeleted: summary.MessagesDeleted,
		BlobsDeleted:    summary.BlobsDeleted,
		BlobsFailed:     summary.BlobsFailed,
	})
}

func (s *Server) listMemberUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListMemberUsers(r.Context(), identityFromCtx(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageType string `json:"messageType"`
		Content     string `json:"content"`
		FileName    string `json:"fileName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	id, err := s.service.SendMessage(
		r.Context(),
		identityFromCtx(r.Context()),
		mux.Vars(r)["id"],
		models.MessageType(req.MessageType),
		req.Content,
		req.FileName,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Id string `json:"_id"`
	}{Id: id})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.service.ListMessages(r.Context(), identityFromCtx(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		resp = append(resp, toMessageResponse(message))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requestUploadTarget(w http.ResponseWriter, r *http.Request) {
	target, err := s.service.RequestUploadTarget(r.Context(), identityFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		BlobId    string    `json:"blobId"`
		UploadUrl string    `json:"uploadUrl"`
		ExpiresAt time.Time `json:"expiresAt"`
	}{
		BlobId:    target.BlobId,
		UploadUrl: target.UploadUrl,
		ExpiresAt: target.ExpiresAt,
	})
}
