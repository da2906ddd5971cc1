package translation

// SpanishCode is the language code of the built-in dictionary
const SpanishCode = "es"

var spanishPhrases = map[string]string{
	"pechuga de pollo":    "chicken breast",
	"muslo de pollo":      "chicken thigh",
	"carne molida":        "ground beef",
	"carne picada":        "ground beef",
	"carne de res":        "beef",
	"carne de cerdo":      "pork",
	"jamon serrano":       "cured ham",
	"aceite de oliva":     "olive oil",
	"leche entera":        "whole milk",
	"leche descremada":    "skim milk",
	"leche desnatada":     "skim milk",
	"pan integral":        "whole wheat bread",
	"pan blanco":          "white bread",
	"pan de molde":        "sandwich bread",
	"arroz integral":      "brown rice",
	"papas fritas":        "french fries",
	"patatas fritas":      "french fries",
	"huevo cocido":        "boiled egg",
	"huevo frito":         "fried egg",
	"jugo de naranja":     "orange juice",
	"zumo de naranja":     "orange juice",
	"mantequilla de mani": "peanut butter",
	"crema de cacahuate":  "peanut butter",
	"frijoles negros":     "black beans",
	"queso fresco":        "fresh cheese",
	"salsa de tomate":     "tomato sauce",
	"yogur natural":       "plain yogurt",
	"harina de trigo":     "wheat flour",
	"azucar moreno":       "brown sugar",
	"pimiento rojo":       "red bell pepper",
	"sin azucar":          "sugar free",
	"bajo en grasa":       "low fat",
	"tortilla de maiz":    "corn flatbread",
	"tortilla de harina":  "wheat flatbread",
	"atun en lata":        "canned tuna",
	"cafe con leche":      "latte",
	"agua con gas":        "sparkling water",
	"galletas de avena":   "oatmeal cookies",
	"helado de vainilla":  "vanilla ice cream",
	"pure de papas":       "mashed potatoes",
	"sopa de pollo":       "chicken soup",
	"ensalada de frutas":  "fruit salad",
}

var spanishWords = map[string]string{
	"manzana":     "apple",
	"manzanas":    "apples",
	"platano":     "banana",
	"platanos":    "bananas",
	"naranja":     "orange",
	"naranjas":    "oranges",
	"fresa":       "strawberry",
	"fresas":      "strawberries",
	"uva":         "grape",
	"uvas":        "grapes",
	"pina":        "pineapple",
	"sandia":      "watermelon",
	"limon":       "lemon",
	"pera":        "pear",
	"durazno":     "peach",
	"melocoton":   "peach",
	"aguacate":    "avocado",
	"zanahoria":   "carrot",
	"zanahorias":  "carrots",
	"cebolla":     "onion",
	"ajo":         "garlic",
	"papa":        "potato",
	"papas":       "potatoes",
	"patata":      "potato",
	"patatas":     "potatoes",
	"lechuga":     "lettuce",
	"espinaca":    "spinach",
	"espinacas":   "spinach",
	"pepino":      "cucumber",
	"brocoli":     "broccoli",
	"maiz":        "corn",
	"frijoles":    "beans",
	"lentejas":    "lentils",
	"garbanzos":   "chickpeas",
	"arroz":       "rice",
	"avena":       "oats",
	"harina":      "flour",
	"pollo":       "chicken",
	"pavo":        "turkey",
	"cerdo":       "pork",
	"res":         "beef",
	"ternera":     "veal",
	"jamon":       "ham",
	"tocino":      "bacon",
	"salchicha":   "sausage",
	"pescado":     "fish",
	"atun":        "tuna",
	"camarones":   "shrimp",
	"gambas":      "prawns",
	"huevo":       "egg",
	"huevos":      "eggs",
	"leche":       "milk",
	"queso":       "cheese",
	"yogur":       "yogurt",
	"mantequilla": "butter",
	"nata":        "cream",
	"aceite":      "oil",
	"azucar":      "sugar",
	"sal":         "salt",
	"miel":        "honey",
	"nueces":      "walnuts",
	"almendras":   "almonds",
	"cacahuetes":  "peanuts",
	"mani":        "peanuts",
	"galleta":     "cookie",
	"galletas":    "cookies",
	"pastel":      "cake",
	"helado":      "ice cream",
	"jugo":        "juice",
	"zumo":        "juice",
	"agua":        "water",
	"cerveza":     "beer",
	"vino":        "wine",
	"sopa":        "soup",
	"ensalada":    "salad",
	"frito":       "fried",
	"frita":       "fried",
	"fritos":      "fried",
	"asado":       "roasted",
	"asada":       "roasted",
	"hervido":     "boiled",
	"cocido":      "cooked",
	"crudo":       "raw",
	"cruda":       "raw",
	"integral":    "whole grain",
	"entera":      "whole",
	"entero":      "whole",
	"verde":       "green",
	"rojo":        "red",
	"roja":        "red",
	"dulce":       "sweet",
	"picante":     "spicy",
}

var spanishStopWords = []string{
	"de", "del", "la", "las", "el", "los", "con", "sin", "y", "en", "para",
	"un", "una", "al", "por",
}

// NewSpanish builds the built-in Spanish to English dictionary
func NewSpanish() (*Dictionary, error) {
	return New(Config{
		Source:    SpanishCode,
		Phrases:   spanishPhrases,
		Words:     spanishWords,
		StopWords: spanishStopWords,
		Markers:   "ñÑ¿¡",
	})
}
