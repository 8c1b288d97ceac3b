package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"quickbite/internal/geo"
)

// Geocode resolves either ?q=<text> to coordinates or ?lat=&lon= to a display
// address. Used by the client at checkout; a geocoder failure is non-critical
// and just reported to the caller.
func Geocode(geocoder *geo.Geocoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/geocode"
		defer handlePanic(c, route)

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			lat, lon, err := geocoder.Forward(c.Request.Context(), q)
			if err != nil {
				log.Printf("[%s] forward geocode failed: %v", route, err)
				respondWithError(c, http.StatusBadGateway, route, "geocoding unavailable")
				return
			}
			c.JSON(http.StatusOK, gin.H{"latitude": lat, "longitude": lon})
			return
		}

		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
		if errLat != nil || errLon != nil {
			respondWithError(c, http.StatusBadRequest, route, "q or lat/lon is required")
			return
		}

		address, err := geocoder.Reverse(c.Request.Context(), lat, lon)
		if err != nil {
			log.Printf("[%s] reverse geocode failed: %v", route, err)
			respondWithError(c, http.StatusBadGateway, route, "geocoding unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"address": address})
	}
}
