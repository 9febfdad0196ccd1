package main

// Common Khmer given names and surnames used for synthetic residents.

var maleFirstNames = []string{
	"Sokha", "Samnang", "Virak", "Dara", "Rith", "Vanna", "Kosal",
	"Piseth", "Chanthy", "Sopheak", "Ratanak", "Pheakdey", "Rithy",
	"Bunthoeun", "Heng", "Keo", "Leap", "Meng", "Narith", "Oudom",
	"Pich", "Raksmey", "Veasna", "Vuthy", "Yuthea", "Sovann",
	"Sovannarith", "Chanrith", "Chanborey", "Bunrith", "Sothea",
	"Kimheng", "Sarath", "Sarin", "Saroeun", "Bunna", "Vicheka",
	"Makara", "Vichet", "Sarun",
}

var femaleFirstNames = []string{
	"Sreymom", "Sreypov", "Sreyleak", "Sreynich", "Sreypeou",
	"Channary", "Channy", "Chanmony", "Chansophy", "Sophea",
	"Sopheap", "Sopheary", "Bopha", "Bophary", "Kunthea",
	"Kuntheavy", "Sreymey", "Sreymuch", "Daravy", "Vannary",
	"Sreypich", "Mony", "Monyra", "Pisey", "Piseyda", "Chenda",
	"Chendavy", "Thida", "Thidavy", "Raksmeary", "Borey",
}

var surnames = []string{
	"Sok", "Sam", "Chan", "Chea", "Chhay", "Chhim", "Chhorn", "Chhun",
	"Heng", "Hok", "Hong", "Huot", "Keo", "Khem", "Kim", "Kong",
	"Lay", "Leng", "Lim", "Long", "Ly", "Mao", "Meas", "Men",
	"Meng", "Mom", "Nget", "Nhem", "Nuon", "Ouk", "Pech", "Pen",
	"Peng", "Pich", "Pok", "Prak", "Prum", "Rath", "Ros", "Roth",
	"Sao", "Sar", "Seng", "Sim", "Sin", "Som", "Son", "Sorn",
	"Suon", "Tan", "Tep", "Thach", "Than", "Thon", "Touch", "Ung",
	"Vann", "Vong", "Yim", "Yin", "Yong", "Yun",
}
