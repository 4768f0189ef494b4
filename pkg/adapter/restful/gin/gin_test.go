// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rohandhobale/drivesync/internal/test/dbcontainer"
	"github.com/rohandhobale/drivesync/pkg/adapter/auth/jwt"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres/partiesrp"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres/shipmentsrp"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/routes"
	"github.com/rohandhobale/drivesync/pkg/adapter/websocket/hub"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/shipmentuc"
	"github.com/stretchr/testify/suite"
)

var (
	tataSteel = uuid.MustParse("b1a5e000-0000-4000-8000-000000000001")
	deccan    = uuid.MustParse("b1a5e000-0000-4000-8000-000000000002")
	ravi      = uuid.MustParse("d1e0e000-0000-4000-8000-000000000001")
	anita     = uuid.MustParse("d1e0e000-0000-4000-8000-000000000002")
)

type IntegrationGinTestSuite struct {
	suite.Suite

	Ctx  context.Context
	Pg   *sqltestutil.PostgresContainer
	Pool *postgres.Pool
	Gin  *gin.Engine
	Auth *jwt.Authenticator
	Hub  *hub.Hub
}

func TestIntegrationGinTestSuite(t *testing.T) {
	ctx := context.Background()
	c, ok := dbcontainer.New(ctx, t, dbcontainer.WithDevSchema())
	if !ok {
		return // errors are already logged
	}
	suite.Run(t, &IntegrationGinTestSuite{
		Ctx:  ctx,
		Pg:   c.Pg,
		Pool: c.Pool,
	})
}

func (igts *IntegrationGinTestSuite) SetupSuite() {
	var err error
	igts.Auth, err = jwt.New(
		[]byte(strings.Repeat("k", jwt.MinSecretLen)), "drivesync", time.Hour,
	)
	igts.Require().NoError(err)
	igts.Hub = hub.New(time.Second, 16)
	uc, err := shipmentuc.New(
		igts.Pool, shipmentsrp.New(), partiesrp.New(),
		shipmentuc.WithNotifier(igts.Hub),
	)
	igts.Require().NoError(err, "cannot instantiate shipments use case")

	igts.Gin = gin.New(gin.Recovery())
	igts.Require().NotNil(igts.Gin, "cannot instantiate Gin engine")
	routes.Register(igts.Gin, uc, igts.Auth, igts.Hub)
}

func (igts *IntegrationGinTestSuite) TearDownSuite() {
	igts.NoError(igts.Hub.Close())
}

func (igts *IntegrationGinTestSuite) token(id uuid.UUID, r model.Role) string {
	tok, err := igts.Auth.Issue(model.Principal{ID: id, Role: r})
	igts.Require().NoError(err, "cannot issue token")
	return tok
}

func (igts *IntegrationGinTestSuite) business(id uuid.UUID) string {
	return igts.token(id, model.RoleBusiness)
}

func (igts *IntegrationGinTestSuite) driver(id uuid.UUID) string {
	return igts.token(id, model.RoleDriver)
}

// send issues the request and decodes the response into `res`,
// returning the status code.
func (igts *IntegrationGinTestSuite) send(
	method, path, token string, body, res any,
) int {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		igts.Require().NoError(err, "cannot encode body")
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, routes.BasePath+path, r)
	igts.Require().NoError(err, "cannot create request")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	igts.Gin.ServeHTTP(w, req)
	if res != nil {
		igts.NoError(json.Unmarshal(w.Body.Bytes(), res),
			"body is not json: %s", w.Body.String())
	}
	return w.Code
}

type detail struct {
	Detail string
}

func (igts *IntegrationGinTestSuite) createShipment(
	token, city string,
) *model.ShipmentView {
	v := &model.ShipmentView{}
	code := igts.send(http.MethodPost, "/shipments", token, map[string]any{
		"title":       "Steel Coils",
		"fromCity":    city,
		"toCity":      "Mumbai",
		"description": "12 coils, covered truck",
		"deadline":    "2025-06-01T00:00:00Z",
		"weight":      12000,
		"volume":      "30 m3",
		"cost":        45000,
		"pickupLocation": map[string]any{
			"lat": 18.52, "lng": 73.85,
		},
	}, v)
	igts.Require().Equal(http.StatusCreated, code)
	return v
}

func (igts *IntegrationGinTestSuite) TestShipmentLifecycle() {
	city := "Pune-" + uuid.NewString()[:8]
	s := igts.createShipment(igts.business(tataSteel), city)
	igts.Equal(model.ShipmentStatusPending, s.Status)
	igts.Equal(tataSteel, s.BusinessID)
	igts.Require().NotNil(s.Business)
	igts.Equal("Tata Steel Pune", s.Business.BusinessName)
	shipmentPath := "/shipments/" + s.ID.String()

	var city1 []model.ShipmentView
	code := igts.send(http.MethodGet, "/shipments/city/"+city,
		igts.driver(ravi), nil, &city1)
	igts.Equal(http.StatusOK, code)
	igts.Require().Len(city1, 1)
	igts.Equal(s.ID, city1[0].ID)
	igts.Require().NotNil(city1[0].Business)
	igts.Equal("+91 20 5555 0101", city1[0].Business.ContactNumber)

	v := &model.ShipmentView{}
	code = igts.send(http.MethodPost, shipmentPath+"/request",
		igts.driver(anita), nil, v)
	igts.Equal(http.StatusCreated, code)
	code = igts.send(http.MethodPost, shipmentPath+"/request",
		igts.driver(ravi), nil, v)
	igts.Equal(http.StatusCreated, code)
	igts.Require().Len(v.Requests, 2)
	raviReq := v.Requests[1]
	igts.Equal(ravi, raviReq.DriverID)

	code = igts.send(http.MethodPost, shipmentPath+"/request",
		igts.driver(ravi), nil, &detail{})
	igts.Equal(http.StatusConflict, code, "duplicate request")

	v = &model.ShipmentView{}
	code = igts.send(http.MethodPatch,
		shipmentPath+"/request/"+raviReq.ID.String(),
		igts.business(tataSteel), map[string]string{"status": "accepted"}, v)
	igts.Require().Equal(http.StatusOK, code)
	igts.Equal(model.ShipmentStatusActive, v.Status)
	igts.Require().NotNil(v.DriverID)
	igts.Equal(ravi, *v.DriverID)
	igts.Require().NotNil(v.Driver)
	igts.Equal("truck", v.Driver.VehicleType)
	igts.Equal(model.RequestStatusRejected, v.Requests[0].Status)
	igts.Equal(model.RequestStatusAccepted, v.Requests[1].Status)
	igts.Equal("anita", v.Requests[0].Driver.Username)

	code = igts.send(http.MethodGet, "/shipments/city/"+city,
		igts.driver(ravi), nil, &city1)
	igts.Equal(http.StatusOK, code)
	igts.Empty(city1, "active shipments are not listed by city")

	code = igts.send(http.MethodPatch, shipmentPath+"/current-location",
		igts.driver(ravi), map[string]any{
			"location": map[string]float64{"lat": 18.9, "lng": 73.2},
		}, v)
	igts.Require().Equal(http.StatusOK, code)
	igts.Require().NotNil(v.CurrentLocation)
	igts.Equal(18.9, v.CurrentLocation.Lat)
	igts.NotNil(v.LastLocationUpdate)

	code = igts.send(http.MethodPatch, shipmentPath+"/current-location",
		igts.driver(anita), map[string]any{
			"location": map[string]float64{"lat": 18.9, "lng": 73.2},
		}, &detail{})
	igts.Equal(http.StatusForbidden, code, "anita is not assigned")

	code = igts.send(http.MethodPatch, shipmentPath+"/status",
		igts.driver(ravi), map[string]string{"status": "picked_up"}, v)
	igts.Equal(http.StatusOK, code)
	igts.Equal(model.ShipmentStatusPickedUp, v.Status)

	d := &detail{}
	code = igts.send(http.MethodPatch, shipmentPath+"/status",
		igts.driver(ravi), map[string]string{"status": "pending"}, d)
	igts.Equal(http.StatusUnprocessableEntity, code)
	igts.NotEmpty(d.Detail)

	code = igts.send(http.MethodPatch, shipmentPath+"/status",
		igts.business(tataSteel), map[string]any{
			"status":   "delivered",
			"location": map[string]float64{"lat": 19.07, "lng": 72.87},
		}, v)
	igts.Equal(http.StatusOK, code)
	igts.Equal(model.ShipmentStatusDelivered, v.Status)
	igts.Equal(19.07, v.CurrentLocation.Lat)

	var mine []model.ShipmentView
	code = igts.send(http.MethodGet, "/shipments/driver",
		igts.driver(ravi), nil, &mine)
	igts.Equal(http.StatusOK, code)
	igts.True(containsShipment(mine, s.ID))

	code = igts.send(http.MethodGet, "/shipments/business",
		igts.business(tataSteel), nil, &mine)
	igts.Equal(http.StatusOK, code)
	igts.True(containsShipment(mine, s.ID))
	code = igts.send(http.MethodGet, "/shipments/business",
		igts.business(deccan), nil, &mine)
	igts.Equal(http.StatusOK, code)
	igts.False(containsShipment(mine, s.ID))
}

func containsShipment(vs []model.ShipmentView, id uuid.UUID) bool {
	for _, v := range vs {
		if v.ID == id {
			return true
		}
	}
	return false
}

func (igts *IntegrationGinTestSuite) TestCreateWithCalendarDate() {
	v := &model.ShipmentView{}
	code := igts.send(http.MethodPost, "/shipments",
		igts.business(tataSteel), `{"title":"Steel Coils",`+
			`"fromCity":"Pune","toCity":"Mumbai","weight":500,`+
			`"volume":"2x2x2","deadline":"2025-06-01"}`, v)
	igts.Require().Equal(http.StatusCreated, code)
	igts.Equal(model.ShipmentStatusPending, v.Status)
	igts.Empty(v.Requests)
	igts.True(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Equal(v.Deadline),
		"deadline is %v", v.Deadline)
}

func (igts *IntegrationGinTestSuite) TestUnavailableDriver() {
	s := igts.createShipment(igts.business(tataSteel), "Nagpur")
	ghost := uuid.New()
	code := igts.send(http.MethodPost, "/shipments/"+s.ID.String()+"/request",
		igts.driver(ghost), nil, &model.ShipmentView{})
	igts.Require().Equal(http.StatusCreated, code)

	v := &model.ShipmentView{}
	code = igts.send(http.MethodGet, "/shipments/"+s.ID.String(),
		igts.business(tataSteel), nil, v)
	igts.Require().Equal(http.StatusOK, code)
	igts.Require().Len(v.Requests, 1)
	igts.Equal(ghost, v.Requests[0].Driver.ID)
	igts.Equal(model.UnavailableUsername, v.Requests[0].Driver.Username)
	igts.Equal(model.UnavailableContactNumber,
		v.Requests[0].Driver.ContactNumber)
}

func (igts *IntegrationGinTestSuite) TestAuthentication() {
	d := &detail{}
	igts.Equal(http.StatusUnauthorized,
		igts.send(http.MethodGet, "/shipments/business", "", nil, d))
	igts.Contains(d.Detail, "missing bearer token")

	igts.Equal(http.StatusUnauthorized, igts.send(
		http.MethodGet, "/shipments/business", "garbage", nil, d,
	))

	igts.Equal(http.StatusForbidden, igts.send(
		http.MethodPost, "/shipments", igts.driver(ravi), map[string]any{
			"title": "t", "fromCity": "a", "toCity": "b",
			"deadline": "2025-06-01T00:00:00Z", "weight": 1, "volume": "v",
		}, d,
	))
	igts.Equal(http.StatusForbidden, igts.send(
		http.MethodGet, "/shipments/city/Pune", igts.business(deccan), nil, d,
	))
}

func (igts *IntegrationGinTestSuite) TestBadRequest() {
	s := igts.createShipment(igts.business(deccan), "Nashik")
	for _, tc := range []struct {
		name, method, path string
		body               any
		field, contains    string
	}{
		{
			name: "empty create", method: http.MethodPost,
			path: "/shipments", body: map[string]any{},
			field: "title", contains: "'required' tag",
		},
		{
			name: "malformed json", method: http.MethodPost,
			path: "/shipments", body: "{",
			field: "detail",
		},
		{
			name: "negative cost", method: http.MethodPost,
			path: "/shipments", body: map[string]any{
				"title": "t", "fromCity": "a", "toCity": "b",
				"deadline": "2025-06-01T00:00:00Z", "weight": 1,
				"volume": "v", "cost": -1,
			},
			field: "detail", contains: "cost",
		},
		{
			name: "bad deadline", method: http.MethodPost,
			path: "/shipments", body: map[string]any{
				"title": "t", "fromCity": "a", "toCity": "b",
				"deadline": "01/06/2025", "weight": 1, "volume": "v",
			},
			field: "detail", contains: "YYYY-MM-DD",
		},
		{
			name: "bad id", method: http.MethodGet,
			path: "/shipments/not-a-uuid", field: "id",
			contains: "not a UUID",
		},
		{
			name: "bad decision", method: http.MethodPatch,
			path: "/shipments/" + s.ID.String() + "/request/" +
				uuid.NewString(),
			body:  map[string]string{"status": "maybe"},
			field: "status", contains: "'oneof' tag",
		},
		{
			name: "no locations", method: http.MethodPatch,
			path:  "/shipments/" + s.ID.String() + "/locations",
			body:  map[string]any{},
			field: "detail", contains: "pickupLocation",
		},
		{
			name: "latitude out of range", method: http.MethodPatch,
			path: "/shipments/" + s.ID.String() + "/locations",
			body: map[string]any{
				"dropoffLocation": map[string]float64{"lat": 91, "lng": 0},
			},
			field: "detail", contains: "latitude",
		},
		{
			name: "unknown status", method: http.MethodPatch,
			path:  "/shipments/" + s.ID.String() + "/status",
			body:  map[string]string{"status": "lost"},
			field: "status",
		},
	} {
		igts.Run(tc.name, func() {
			res := map[string]any{}
			code := igts.send(
				tc.method, tc.path, igts.business(deccan), tc.body, &res,
			)
			igts.Equal(http.StatusBadRequest, code)
			igts.Require().Contains(res, tc.field)
			b, err := json.Marshal(res[tc.field])
			igts.Require().NoError(err)
			igts.Contains(string(b), tc.contains)
		})
	}
}

func (igts *IntegrationGinTestSuite) TestNotFound() {
	missing := "/shipments/" + uuid.NewString()
	d := &detail{}
	igts.Equal(http.StatusNotFound, igts.send(
		http.MethodGet, missing, igts.business(tataSteel), nil, d,
	))
	igts.Equal(http.StatusNotFound, igts.send(
		http.MethodPost, missing+"/request", igts.driver(ravi), nil, d,
	))

	s := igts.createShipment(igts.business(tataSteel), "Satara")
	igts.Equal(http.StatusNotFound, igts.send(
		http.MethodPatch,
		"/shipments/"+s.ID.String()+"/request/"+uuid.NewString(),
		igts.business(tataSteel), map[string]string{"status": "rejected"}, d,
	))
}

func (igts *IntegrationGinTestSuite) TestTracking() {
	s := igts.createShipment(igts.business(tataSteel), "Kolhapur")
	srv := httptest.NewServer(igts.Gin)
	defer srv.Close()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + routes.BasePath +
		"/shipments/" + s.ID.String() + "/track?token="

	_, resp, err := websocket.DefaultDialer.Dial(
		u+igts.business(deccan), nil,
	)
	igts.Require().Error(err, "deccan does not own the shipment")
	igts.Require().NotNil(resp)
	igts.Equal(http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(
		u+igts.business(tataSteel), nil,
	)
	igts.Require().NoError(err)
	resp.Body.Close()
	defer conn.Close()
	igts.Require().Eventually(func() bool {
		return igts.Hub.Subscribers(s.ID) == 1
	}, 5*time.Second, 10*time.Millisecond)

	code := igts.send(http.MethodPost, "/shipments/"+s.ID.String()+"/request",
		igts.driver(anita), nil, &model.ShipmentView{})
	igts.Require().Equal(http.StatusCreated, code)

	igts.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, b, err := conn.ReadMessage()
	igts.Require().NoError(err)
	e := model.Event{}
	igts.Require().NoError(json.Unmarshal(b, &e))
	igts.Equal(model.EventRequestSubmitted, e.Type)
	igts.Equal(s.ID, e.ShipmentID)
	igts.Equal(anita, e.ActorID)
	igts.Require().Len(e.Shipment.Requests, 1)
}
