package catalog

import "encoding/json"

// HotelOption is a single hotel in the fixture catalog.
type HotelOption struct {
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
}

// HotelOptions is a list of hotel options.
type HotelOptions []HotelOption

var hotelCatalog = HotelOptions{
	{Name: "City Center Hotel", Location: "Downtown", PricePerNight: 199.99, Amenities: []string{"WiFi", "Pool", "Gym", "Restaurant"}},
	{Name: "Riverside Inn", Location: "Riverside District", PricePerNight: 149.50, Amenities: []string{"WiFi", "Free Breakfast", "Parking"}},
	{Name: "Luxury Palace", Location: "Historic District", PricePerNight: 349.99, Amenities: []string{"WiFi", "Pool", "Spa", "Fine Dining", "Concierge"}},
}

// SearchHotels returns hotel options for a city and stay dates. A maxPrice
// of zero or less disables the price filter; otherwise the filter is
// inclusive, so a hotel priced exactly at maxPrice is kept.
func SearchHotels(city, checkIn, checkOut string, maxPrice float64) HotelOptions {
	out := make(HotelOptions, 0, len(hotelCatalog))
	for _, h := range hotelCatalog {
		if maxPrice > 0 && h.PricePerNight > maxPrice {
			continue
		}
		h.Amenities = append([]string(nil), h.Amenities...)
		out = append(out, h)
	}
	return out
}

// JSON renders the options as a JSON array for prompt assembly.
func (o HotelOptions) JSON() string {
	b, err := json.Marshal(o)
	if err != nil {
		return "[]"
	}
	return string(b)
}
