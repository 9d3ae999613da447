package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type sessionPayload struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	OwnerID int    `json:"ownerId"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}

func (s *E2ETestSuite) Test10_CreateSession() {
	resp, parsed := s.do("POST", "/sessions", s.ownerToken, map[string]string{
		"name": "June Regents Week",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var session sessionPayload
	s.Require().NoError(json.Unmarshal(parsed.Data, &session))
	s.Require().Positive(session.ID)
	s.Equal("planned", session.Status)
	s.Equal(1, session.Version)
	s.Equal(s.ownerID, session.OwnerID)
	s.sessionID = session.ID
}

func (s *E2ETestSuite) Test11_SessionsListIncludesOwned() {
	resp, parsed := s.do("GET", "/sessions?page=1&pageSize=50", s.ownerToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var data struct {
		Data       []sessionPayload `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(parsed.Data, &data))
	s.Require().Positive(data.Pagination.Total)
	found := false
	for _, it := range data.Data {
		if it.ID == s.sessionID {
			found = true
		}
	}
	s.True(found)
}

func (s *E2ETestSuite) Test12_StrangerCannotViewSession() {
	resp, parsed := s.do("GET", fmt.Sprintf("/sessions/%d", s.sessionID), s.proctorToken, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Require().NotNil(parsed.Error)
	s.Equal("FORBIDDEN", parsed.Error.Code)
}

func (s *E2ETestSuite) Test13_UpdateSessionBumpsVersion() {
	resp, parsed := s.do("PATCH", fmt.Sprintf("/sessions/%d", s.sessionID), s.ownerToken, map[string]any{
		"status":  "active",
		"version": 1,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var session sessionPayload
	s.Require().NoError(json.Unmarshal(parsed.Data, &session))
	s.Equal("active", session.Status)
	s.Equal(2, session.Version)
}

func (s *E2ETestSuite) Test14_StaleVersionConflicts() {
	resp, parsed := s.do("PATCH", fmt.Sprintf("/sessions/%d", s.sessionID), s.ownerToken, map[string]any{
		"name":    "stale write",
		"version": 1,
	})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Require().NotNil(parsed.Error)
	s.Equal("CONFLICT", parsed.Error.Code)
}

func (s *E2ETestSuite) Test15_RoomsAndSections() {
	resp, parsed := s.do("POST", fmt.Sprintf("/sessions/%d/rooms", s.sessionID), s.ownerToken, map[string]any{
		"name":     "Room 201",
		"capacity": 30,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var room struct {
		ID int `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(parsed.Data, &room))

	resp, parsed = s.do("POST", fmt.Sprintf("/sessions/%d/sections", s.sessionID), s.ownerToken, map[string]any{
		"name":   "Algebra I - Period 3",
		"roomId": room.ID,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var section struct {
		ID     int  `json:"id"`
		RoomID *int `json:"roomId"`
	}
	s.Require().NoError(json.Unmarshal(parsed.Data, &section))
	s.Require().NotNil(section.RoomID)
	s.Equal(room.ID, *section.RoomID)

	resp, _ = s.do("PATCH", fmt.Sprintf("/rooms/%d", room.ID), s.ownerToken, map[string]any{
		"name": "Room 201A",
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do("DELETE", fmt.Sprintf("/sections/%d", section.ID), s.ownerToken, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *E2ETestSuite) Test16_StrangerCannotEditRooms() {
	resp, _ := s.do("POST", fmt.Sprintf("/sessions/%d/rooms", s.sessionID), s.proctorToken, map[string]any{
		"name": "Room 999",
	})
	s.Equal(http.StatusForbidden, resp.StatusCode)
}
