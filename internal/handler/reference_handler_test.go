package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orders-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReferenceHandler_List(t *testing.T) {
	svc := new(MockReferenceService[model.State])
	h := NewReferenceHandler[model.State]("state", svc, zerolog.Nop())

	states := []model.State{{ID: 1, Name: "Antioquia", CountryID: 1}}
	svc.On("List", mock.Anything, model.Pagination{ID: 1, Page: 2, RecordsNumber: 5}).Return(states, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/states?id=1&page=2&recordsnumber=5", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []model.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Antioquia", got[0].Name)
	svc.AssertExpectations(t)
}

func TestReferenceHandler_TotalPages(t *testing.T) {
	svc := new(MockReferenceService[model.Country])
	h := NewReferenceHandler[model.Country]("country", svc, zerolog.Nop())

	svc.On("TotalPages", mock.Anything, model.Pagination{Page: 1, RecordsNumber: 10, Filter: "co"}).Return(3, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/countries/totalPages?filter=co", nil)
	w := httptest.NewRecorder()

	h.TotalPages(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3\n", w.Body.String())
}

func TestReferenceHandler_Combo(t *testing.T) {
	tests := []struct {
		name           string
		params         []string
		expectedParent int
		expectedStatus int
		expectService  bool
	}{
		{name: "no parent", expectedParent: 0, expectedStatus: http.StatusOK, expectService: true},
		{name: "with parent", params: []string{"parentId", "4"}, expectedParent: 4, expectedStatus: http.StatusOK, expectService: true},
		{name: "invalid parent", params: []string{"parentId", "x"}, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReferenceService[model.City])
			h := NewReferenceHandler[model.City]("city", svc, zerolog.Nop())
			if tt.expectService {
				svc.On("Combo", mock.Anything, tt.expectedParent).Return([]model.City{{ID: 9, Name: "Medellín"}}, nil)
			}

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/cities/combo", nil), tt.params...)
			w := httptest.NewRecorder()

			h.Combo(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "Combo", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestReferenceHandler_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockReturn     *model.Country
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			id:             "1",
			mockReturn:     &model.Country{ID: 1, Name: "Colombia"},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Not found",
			id:             "99",
			mockError:      model.NotFound("country"),
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Invalid id",
			id:             "abc",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReferenceService[model.Country])
			h := NewReferenceHandler[model.Country]("country", svc, zerolog.Nop())
			if tt.expectService {
				if tt.mockReturn != nil {
					svc.On("GetByID", mock.Anything, tt.mockReturn.ID).Return(tt.mockReturn, nil)
				} else {
					svc.On("GetByID", mock.Anything, 99).Return(nil, tt.mockError)
				}
			}

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/countries/"+tt.id, nil), "id", tt.id)
			w := httptest.NewRecorder()

			h.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNotFound {
				assert.Equal(t, "country does not exist", decodeErrorBody(t, w).Message)
			}
		})
	}
}

func TestReferenceHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"name":"Chile"}`,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Duplicate",
			body:           `{"name":"Colombia"}`,
			mockError:      model.ErrAlreadyExists,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Missing name",
			body:           `{"name":""}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid JSON",
			body:           `invalid json`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReferenceService[model.Country])
			h := NewReferenceHandler[model.Country]("country", svc, zerolog.Nop())
			if tt.expectService {
				if tt.mockError != nil {
					svc.On("Create", mock.Anything, mock.AnythingOfType("*model.Country")).Return(nil, tt.mockError)
				} else {
					svc.On("Create", mock.Anything, mock.AnythingOfType("*model.Country")).Return(&model.Country{ID: 6, Name: "Chile"}, nil)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/countries", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			h.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestReferenceHandler_UpdateAndDelete(t *testing.T) {
	svc := new(MockReferenceService[model.Category])
	h := NewReferenceHandler[model.Category]("category", svc, zerolog.Nop())

	svc.On("Update", mock.Anything, &model.Category{ID: 2, Name: "Mascotas"}).Return(&model.Category{ID: 2, Name: "Mascotas"}, nil)
	svc.On("Delete", mock.Anything, 2).Return(nil)
	svc.On("Delete", mock.Anything, 3).Return(model.ErrHasRelatedRecords)

	req := httptest.NewRequest(http.MethodPut, "/api/categories", strings.NewReader(`{"id":2,"name":"Mascotas"}`))
	w := httptest.NewRecorder()
	h.Update(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = withURLParams(httptest.NewRequest(http.MethodDelete, "/api/categories/2", nil), "id", "2")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	req = withURLParams(httptest.NewRequest(http.MethodDelete, "/api/categories/3", nil), "id", "3")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeHasRelatedRecords, decodeErrorBody(t, w).Error)

	svc.AssertExpectations(t)
}
