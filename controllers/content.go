package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pcstore/middleware"
	"pcstore/models"
)

// ContentController serves the storefront content collections: blogs, deals,
// events, testimonials and hero slides. Reads are public; writes are admin.
type ContentController struct {
	Blogs        *mongo.Collection
	Deals        *mongo.Collection
	Events       *mongo.Collection
	Testimonials *mongo.Collection
	Slides       *mongo.Collection
}

// NewContentController creates a new ContentController.
func NewContentController(client *mongo.Client, dbName string) *ContentController {
	db := client.Database(dbName)
	return &ContentController{
		Blogs:        db.Collection("blogs"),
		Deals:        db.Collection("deals"),
		Events:       db.Collection("events"),
		Testimonials: db.Collection("testimonials"),
		Slides:       db.Collection("slides"),
	}
}

// listContent runs a filtered, sorted find and decodes into out, which must
// be a pointer to a slice.
func listContent(ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, out interface{}) error {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// updateContent applies a $set of the decoded request body to one document.
func updateContent(w http.ResponseWriter, r *http.Request, coll *mongo.Collection, label string) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	var update bson.M
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	delete(update, "_id")
	delete(update, "id")
	update["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, label+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": label + " updated",
	})
}

// deleteContent removes one document by id.
func deleteContent(w http.ResponseWriter, r *http.Request, coll *mongo.Collection, label string) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if res.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, label+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": label + " deleted",
	})
}

// GetBlogs lists published blogs, newest first. Admins can pass
// includeDrafts=true to see unpublished entries.
func (cc *ContentController) GetBlogs(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{"published": true}
	if r.URL.Query().Get("includeDrafts") == "true" {
		if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && claims.IsAdmin() {
			filter = bson.M{}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	blogs := []models.Blog{}
	if err := listContent(ctx, cc.Blogs, filter, bson.D{{Key: "created_at", Value: -1}}, &blogs); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"blogs":   blogs,
	})
}

// GetBlogBySlug returns a single published blog.
func (cc *ContentController) GetBlogBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var blog models.Blog
	err := cc.Blogs.FindOne(ctx, bson.M{"slug": slug, "published": true}).Decode(&blog)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"blog":    blog,
	})
}

// CreateBlog adds a blog post.
func (cc *ContentController) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var blog models.Blog
	if err := json.NewDecoder(r.Body).Decode(&blog); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if blog.Title == "" || blog.Slug == "" || blog.Content == "" {
		writeError(w, http.StatusBadRequest, "Title, slug and content are required")
		return
	}
	blog.ID = primitive.NewObjectID()
	blog.CreatedAt = time.Now()
	blog.UpdatedAt = blog.CreatedAt

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := cc.Blogs.InsertOne(ctx, blog); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating blog")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"blog":    blog,
	})
}

// UpdateBlog patches a blog post.
func (cc *ContentController) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	updateContent(w, r, cc.Blogs, "Blog")
}

// DeleteBlog removes a blog post.
func (cc *ContentController) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	deleteContent(w, r, cc.Blogs, "Blog")
}

// GetDeals lists active deals, newest first.
func (cc *ContentController) GetDeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	deals := []models.Deal{}
	if err := listContent(ctx, cc.Deals, bson.M{"is_active": true}, bson.D{{Key: "created_at", Value: -1}}, &deals); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deals":   deals,
	})
}

// CreateDeal adds a promotional deal.
func (cc *ContentController) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var deal models.Deal
	if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if deal.Title == "" || deal.ProductName == "" {
		writeError(w, http.StatusBadRequest, "Title and product name are required")
		return
	}
	deal.ID = primitive.NewObjectID()
	deal.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := cc.Deals.InsertOne(ctx, deal); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating deal")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"deal":    deal,
	})
}

// UpdateDeal patches a deal.
func (cc *ContentController) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	updateContent(w, r, cc.Deals, "Deal")
}

// DeleteDeal removes a deal.
func (cc *ContentController) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	deleteContent(w, r, cc.Deals, "Deal")
}

// GetEvents lists active events in start order.
func (cc *ContentController) GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	events := []models.Event{}
	if err := listContent(ctx, cc.Events, bson.M{"is_active": true}, bson.D{{Key: "starts_at", Value: 1}}, &events); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"events":  events,
	})
}

// CreateEvent adds a storefront event.
func (cc *ContentController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if event.Title == "" || event.StartsAt.IsZero() {
		writeError(w, http.StatusBadRequest, "Title and start time are required")
		return
	}
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := cc.Events.InsertOne(ctx, event); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating event")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"event":   event,
	})
}

// UpdateEvent patches an event.
func (cc *ContentController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	updateContent(w, r, cc.Events, "Event")
}

// DeleteEvent removes an event.
func (cc *ContentController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	deleteContent(w, r, cc.Events, "Event")
}

// GetTestimonials lists approved testimonials, newest first.
func (cc *ContentController) GetTestimonials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	testimonials := []models.Testimonial{}
	if err := listContent(ctx, cc.Testimonials, bson.M{"approved": true}, bson.D{{Key: "created_at", Value: -1}}, &testimonials); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"testimonials": testimonials,
	})
}

// CreateTestimonial accepts a customer quote. Submissions start unapproved
// and only show publicly after an admin flips the flag.
func (cc *ContentController) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var t models.Testimonial
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if t.Name == "" || t.Quote == "" {
		writeError(w, http.StatusBadRequest, "Name and quote are required")
		return
	}
	if t.Rating < 1 || t.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	t.ID = primitive.NewObjectID()
	t.Approved = false
	t.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := cc.Testimonials.InsertOne(ctx, t); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating testimonial")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     "Testimonial submitted for review",
		"testimonial": t,
	})
}

// UpdateTestimonial patches a testimonial (including approval).
func (cc *ContentController) UpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	updateContent(w, r, cc.Testimonials, "Testimonial")
}

// DeleteTestimonial removes a testimonial.
func (cc *ContentController) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	deleteContent(w, r, cc.Testimonials, "Testimonial")
}

// GetSlides lists active hero slides in display order.
func (cc *ContentController) GetSlides(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	slides := []models.Slide{}
	if err := listContent(ctx, cc.Slides, bson.M{"is_active": true}, bson.D{{Key: "order", Value: 1}}, &slides); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"slides":  slides,
	})
}

// CreateSlide adds a carousel slide.
func (cc *ContentController) CreateSlide(w http.ResponseWriter, r *http.Request) {
	var slide models.Slide
	if err := json.NewDecoder(r.Body).Decode(&slide); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if slide.Title == "" || slide.Image == "" {
		writeError(w, http.StatusBadRequest, "Title and image are required")
		return
	}
	slide.ID = primitive.NewObjectID()
	if slide.SlideID == "" {
		slide.SlideID = slide.ID.Hex()
	}
	slide.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := cc.Slides.InsertOne(ctx, slide); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating slide")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"slide":   slide,
	})
}

// UpdateSlide patches a slide.
func (cc *ContentController) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	updateContent(w, r, cc.Slides, "Slide")
}

// DeleteSlide removes a slide.
func (cc *ContentController) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	deleteContent(w, r, cc.Slides, "Slide")
}
