package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSearch(t *testing.T) {
	Convey("Given a qdrant endpoint", t, func() {
		var gotBody map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/collections/metaphors/points/search" {
				w.WriteHeader(http.StatusNotFound)
				return
			}

			json.NewDecoder(r.Body).Decode(&gotBody)

			json.NewEncoder(w).Encode(map[string]any{
				"result": []map[string]any{
					{
						"id":    "doc-1",
						"score": 0.92,
						"payload": map[string]any{
							"text":     "a warm embrace",
							"culture":  "culture:mx",
							"modality": "tactile",
							"concept":  "tactile-comfort",
						},
					},
				},
			})
		}))
		defer srv.Close()

		client := New(srv.URL, "metaphors")

		Convey("When searching with culture tags", func() {
			docs, err := client.Search(
				context.Background(), []float32{0.1, 0.2}, []string{"culture:mx"}, 5,
			)

			Convey("Then payloads map back into documents", func() {
				So(err, ShouldBeNil)
				So(len(docs), ShouldEqual, 1)
				So(docs[0].Text, ShouldEqual, "a warm embrace")
				So(docs[0].Culture, ShouldEqual, "culture:mx")
				So(docs[0].Concept, ShouldEqual, "tactile-comfort")
				So(docs[0].Score, ShouldAlmostEqual, 0.92, 0.0001)
			})

			Convey("Then the request carries the culture filter", func() {
				So(gotBody["filter"], ShouldNotBeNil)
				So(gotBody["limit"], ShouldEqual, float64(5))
			})
		})

		Convey("When searching without culture tags", func() {
			_, err := client.Search(context.Background(), []float32{0.1}, nil, 5)

			Convey("Then no filter is sent", func() {
				So(err, ShouldBeNil)
				_, hasFilter := gotBody["filter"]
				So(hasFilter, ShouldBeFalse)
			})
		})
	})
}

func TestPut(t *testing.T) {
	Convey("Given a qdrant endpoint", t, func() {
		var gotPoints int

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}

			var body struct {
				Points []any `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotPoints = len(body.Points)

			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := New(srv.URL, "metaphors")

		Convey("When upserting documents", func() {
			doc := NewDocument("doc-1", "a warm embrace", "culture:mx", "tactile", "tactile-comfort")
			doc.Embedding = []float32{0.1, 0.2}

			err := client.Put(context.Background(), []Document{*doc})

			Convey("Then the batch reaches the collection", func() {
				So(err, ShouldBeNil)
				So(gotPoints, ShouldEqual, 1)
			})
		})
	})
}

func TestErrorStatuses(t *testing.T) {
	Convey("Given an endpoint that rejects everything", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := New(srv.URL, "metaphors")
		ctx := context.Background()

		Convey("Then every operation surfaces the status", func() {
			So(client.Ping(ctx), ShouldNotBeNil)
			So(client.Put(ctx, []Document{{ID: "x"}}), ShouldNotBeNil)

			_, err := client.Search(ctx, []float32{0.1}, nil, 1)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPing(t *testing.T) {
	Convey("Given a healthy collection", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/collections/metaphors" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		So(New(srv.URL, "metaphors").Ping(context.Background()), ShouldBeNil)
	})
}
