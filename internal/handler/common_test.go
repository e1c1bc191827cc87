package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/service"
)

func TestStatusFor(t *testing.T) {
    cases := map[error]int{
        service.ErrUnauthorized:    http.StatusUnauthorized,
        service.ErrForbidden:       http.StatusForbidden,
        service.ErrNotFound:        http.StatusNotFound,
        service.ErrConflict:        http.StatusConflict,
        service.ErrValidation:      http.StatusBadRequest,
        errors.New("disk on fire"): http.StatusInternalServerError,
    }
    for kind, want := range cases {
        if got := statusFor(kind); got != want {
            t.Errorf("statusFor(%v) = %d, want %d", kind, got, want)
        }
    }
}

func TestRespondError(t *testing.T) {
    cases := []struct {
        name        string
        err         error
        wantStatus  int
        wantKind    string
        wantMessage string
    }{
        {
            name:        "service error",
            err:         &service.Error{Kind: service.ErrConflict, Msg: "already registered for this session"},
            wantStatus:  http.StatusConflict,
            wantKind:    "conflict",
            wantMessage: "already registered for this session",
        },
        {
            name:        "unclassified error is hidden",
            err:         errors.New("connection refused"),
            wantStatus:  http.StatusInternalServerError,
            wantKind:    "internal",
            wantMessage: "internal error",
        },
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            e := echo.New()
            rec := httptest.NewRecorder()
            c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
            if err := respondError(c, tc.err); err != nil {
                t.Fatalf("respondError: %v", err)
            }
            if rec.Code != tc.wantStatus {
                t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
            }
            var body map[string]string
            if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
                t.Fatalf("decode: %v", err)
            }
            if body["error"] != tc.wantKind || body["message"] != tc.wantMessage {
                t.Fatalf("body = %v", body)
            }
        })
    }
}

func TestParseDate(t *testing.T) {
    d, err := parseDate(" 2026-03-14 ")
    if err != nil {
        t.Fatalf("parseDate: %v", err)
    }
    if want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC); !d.Equal(want) || d.Location() != time.UTC {
        t.Fatalf("parseDate = %v, want %v", d, want)
    }
    for _, bad := range []string{"", "14/03/2026", "2026-02-30", "2026-3-1"} {
        if _, err := parseDate(bad); err == nil {
            t.Errorf("parseDate(%q) succeeded", bad)
        }
    }
}

func TestToSessionRespFormatsCost(t *testing.T) {
    link := "https://pay.example.com/x"
    r := toSessionResp(model.Session{
        ID:          "s1",
        Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
        Time:        "19:30",
        CostCents:   705,
        PaymentLink: &link,
        Places:      8,
    })
    if r.Date != "2026-03-14" || r.Cost != "7.05" || r.CostCents != 705 {
        t.Fatalf("resp = %+v", r)
    }
}

func TestErrorHandler(t *testing.T) {
    cases := []struct {
        err        error
        wantStatus int
        wantKind   string
    }{
        {echo.ErrNotFound, http.StatusNotFound, "not_found"},
        {echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
        {echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge, "bad_request"},
        {errors.New("boom"), http.StatusInternalServerError, "internal"},
    }
    for _, tc := range cases {
        e := echo.New()
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/nope", nil), rec)
        ErrorHandler(tc.err, c)
        if rec.Code != tc.wantStatus {
            t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.wantStatus)
        }
        var body map[string]string
        if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
            t.Fatalf("decode: %v", err)
        }
        if body["error"] != tc.wantKind {
            t.Fatalf("%v: kind = %q, want %q", tc.err, body["error"], tc.wantKind)
        }
    }
}
